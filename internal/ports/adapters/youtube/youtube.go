package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/vgrishin/shortreel/internal/ports"
	"github.com/vgrishin/shortreel/internal/types"
)

const (
	defaultUploadBaseURL = "https://www.googleapis.com"
	defaultTokenURL      = "https://oauth2.googleapis.com/token"

	chunkSize = 8 << 20 // resumable upload chunk
)

// Transport uploads clips via the YouTube resumable upload protocol:
// initiate a session to get an upload URL, then PUT the file in chunks.
type Transport struct {
	baseURL string
	client  *http.Client
}

func NewTransport(baseURL string) *Transport {
	if baseURL == "" {
		baseURL = defaultUploadBaseURL
	}
	return &Transport{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Minute},
	}
}

var _ ports.UploadTransport = (*Transport)(nil)

func (t *Transport) Upload(ctx context.Context, filePath string, meta ports.UploadMetadata, cred types.Credential, progress func(pct int)) (ports.UploadReceipt, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return ports.UploadReceipt{}, &ports.UploadError{Err: err}
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return ports.UploadReceipt{}, &ports.UploadError{Err: err}
	}

	sessionURL, err := t.initiate(ctx, meta, cred, fi.Size())
	if err != nil {
		return ports.UploadReceipt{}, &ports.UploadError{Err: err}
	}

	body, err := t.putChunks(ctx, sessionURL, f, fi.Size(), cred, progress)
	if err != nil {
		return ports.UploadReceipt{}, &ports.UploadError{Err: err}
	}

	id := gjson.Get(body, "id").String()
	if id == "" {
		return ports.UploadReceipt{}, &ports.UploadError{Err: errors.New("no video id in upload response")}
	}
	return ports.UploadReceipt{
		PlatformID:  id,
		PlatformURL: "https://youtube.com/shorts/" + id,
	}, nil
}

func (t *Transport) initiate(ctx context.Context, meta ports.UploadMetadata, cred types.Credential, size int64) (string, error) {
	payload := map[string]any{
		"snippet": map[string]any{
			"title":                meta.Title,
			"description":          meta.Description,
			"tags":                 meta.Tags,
			"categoryId":           meta.CategoryID,
			"defaultLanguage":      "en",
			"defaultAudioLanguage": "en",
		},
		"status": map[string]any{
			"privacyStatus":           meta.PrivacyStatus,
			"selfDeclaredMadeForKids": false,
		},
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	u := t.baseURL + "/upload/youtube/v3/videos?uploadType=resumable&part=snippet,status"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+cred.AccessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Upload-Content-Type", "video/mp4")
	req.Header.Set("X-Upload-Content-Length", fmt.Sprintf("%d", size))

	resp, err := t.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		rb, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("initiate upload: status %d: %s", resp.StatusCode, truncate(string(rb), 300))
	}
	loc := resp.Header.Get("Location")
	if loc == "" {
		return "", errors.New("initiate upload: no session location")
	}
	return loc, nil
}

func (t *Transport) putChunks(ctx context.Context, sessionURL string, f *os.File, size int64, cred types.Credential, progress func(pct int)) (string, error) {
	var offset int64
	buf := make([]byte, chunkSize)
	for offset < size {
		n, err := io.ReadFull(f, buf)
		if err != nil && err != io.ErrUnexpectedEOF {
			return "", err
		}
		chunk := buf[:n]
		end := offset + int64(n)

		req, err := http.NewRequestWithContext(ctx, http.MethodPut, sessionURL, bytes.NewReader(chunk))
		if err != nil {
			return "", err
		}
		req.Header.Set("Authorization", "Bearer "+cred.AccessToken)
		req.Header.Set("Content-Type", "video/mp4")
		req.Header.Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", offset, end-1, size))

		resp, err := t.client.Do(req)
		if err != nil {
			return "", err
		}
		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch resp.StatusCode {
		case http.StatusOK, http.StatusCreated:
			if readErr != nil {
				return "", readErr
			}
			if progress != nil {
				progress(100)
			}
			return string(body), nil
		case 308: // resume incomplete, continue with next chunk
			offset = end
			if progress != nil && size > 0 {
				progress(int(offset * 100 / size))
			}
		default:
			return "", fmt.Errorf("upload chunk: status %d: %s", resp.StatusCode, truncate(string(body), 300))
		}
	}
	return "", errors.New("upload ended without a completion response")
}

// Refresher exchanges refresh tokens at the OAuth token endpoint. A refresh
// failure is a hard failure of the calling upload; it is not retried here.
type Refresher struct {
	clientID     string
	clientSecret string
	tokenURL     string
	client       *http.Client
}

func NewRefresher(clientID, clientSecret, tokenURL string) *Refresher {
	if tokenURL == "" {
		tokenURL = defaultTokenURL
	}
	return &Refresher{
		clientID:     clientID,
		clientSecret: clientSecret,
		tokenURL:     tokenURL,
		client:       &http.Client{Timeout: 30 * time.Second},
	}
}

var _ ports.CredentialRefresher = (*Refresher)(nil)

func (r *Refresher) Refresh(ctx context.Context, cred types.Credential) (types.Credential, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {cred.RefreshToken},
		"client_id":     {r.clientID},
		"client_secret": {r.clientSecret},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return types.Credential{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := r.client.Do(req)
	if err != nil {
		return types.Credential{}, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return types.Credential{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return types.Credential{}, fmt.Errorf("token refresh: status %d: %s", resp.StatusCode, truncate(string(body), 300))
	}

	doc := string(body)
	token := gjson.Get(doc, "access_token").String()
	if token == "" {
		return types.Credential{}, errors.New("token refresh: no access_token in response")
	}
	cred.AccessToken = token
	expiresIn := gjson.Get(doc, "expires_in").Int()
	if expiresIn <= 0 {
		expiresIn = 3600
	}
	cred.Expiry = time.Now().UTC().Add(time.Duration(expiresIn) * time.Second)
	if rt := gjson.Get(doc, "refresh_token").String(); rt != "" {
		cred.RefreshToken = rt
	}
	return cred, nil
}

func truncate(s string, n int) string {
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	return string(rs[:n])
}
