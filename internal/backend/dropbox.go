package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mindmorass/infinity-clipboard/internal/logger"
	"github.com/mindmorass/infinity-clipboard/internal/storage"
	"golang.org/x/oauth2"
)

const (
	// DropboxFolder is the app folder holding the records
	DropboxFolder = "/Apps/InfinityClipboard"

	dropboxContentAPI = "https://content.dropboxapi.com/2"
	dropboxAPI        = "https://api.dropboxapi.com/2"
	dropboxAuthURL    = "https://www.dropbox.com/oauth2/authorize"
	dropboxTokenURL   = "https://api.dropboxapi.com/oauth2/token"

	// SecretService is the service name for storing tokens
	SecretService = "com.infinityclipboard.dropbox"

	secretAccount = "tokens"
)

// dropboxTokens is the persisted token set
type dropboxTokens struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	Expiry       time.Time `json:"expiry"`
}

// DropboxBackend stores one file per key in the Dropbox app folder
type DropboxBackend struct {
	appKey       string
	appSecret    string
	accessToken  string
	refreshToken string
	tokenExpiry  time.Time
	httpClient   *http.Client
	oauthConfig  *oauth2.Config

	contentURL string
	apiURL     string

	mu   sync.Mutex
	revs map[string]string
}

// NewDropboxBackend creates a new Dropbox backend
func NewDropboxBackend(appKey, appSecret string) *DropboxBackend {
	return &DropboxBackend{
		appKey:    appKey,
		appSecret: appSecret,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		contentURL: dropboxContentAPI,
		apiURL:     dropboxAPI,
		revs:       make(map[string]string),
	}
}

// SetBaseURLs overrides the content and RPC API endpoints
func (b *DropboxBackend) SetBaseURLs(contentURL, apiURL string) {
	b.contentURL = strings.TrimSuffix(contentURL, "/")
	b.apiURL = strings.TrimSuffix(apiURL, "/")
}

// SetHTTPClient replaces the HTTP client used for API calls
func (b *DropboxBackend) SetHTTPClient(c *http.Client) {
	b.httpClient = c
}

// Type returns the backend type
func (b *DropboxBackend) Type() BackendType {
	return BackendDropbox
}

// GetLocation returns the app folder once authenticated
func (b *DropboxBackend) GetLocation() string {
	if b.accessToken == "" {
		return ""
	}
	return "dropbox:" + DropboxFolder
}

// SetLocation is not used for Dropbox (folder is fixed)
func (b *DropboxBackend) SetLocation(location string) error {
	return nil
}

func (b *DropboxBackend) filePath(key string) string {
	return DropboxFolder + "/" + recordName(key)
}

func (b *DropboxBackend) ensureOAuthConfig() *oauth2.Config {
	if b.oauthConfig == nil {
		b.oauthConfig = &oauth2.Config{
			ClientID:     b.appKey,
			ClientSecret: b.appSecret,
			Endpoint: oauth2.Endpoint{
				AuthURL:  dropboxAuthURL,
				TokenURL: dropboxTokenURL,
			},
		}
	}
	return b.oauthConfig
}

// Init loads stored tokens and refreshes them if they have expired
func (b *DropboxBackend) Init(ctx context.Context) error {
	if b.accessToken != "" && time.Now().Before(b.tokenExpiry) {
		return nil
	}
	if b.appKey == "" {
		return fmt.Errorf("Dropbox app key not configured")
	}

	b.ensureOAuthConfig()

	if b.accessToken == "" {
		if err := b.loadTokens(); err != nil {
			return fmt.Errorf("Dropbox not authenticated: %w", err)
		}
	}

	if time.Now().After(b.tokenExpiry) {
		if err := b.refreshAccessToken(ctx); err != nil {
			return fmt.Errorf("failed to refresh token: %w", err)
		}
	}

	return nil
}

// Close releases resources
func (b *DropboxBackend) Close() error {
	return nil
}

// Write uploads data under key. A known revision is sent so a concurrent
// writer surfaces as ErrConflict instead of being overwritten.
func (b *DropboxBackend) Write(ctx context.Context, key string, data []byte) error {
	if b.accessToken == "" {
		return ErrNotConfigured
	}
	if err := ValidateKey(key); err != nil {
		return err
	}

	encoded, err := storage.Encode(storage.NewRecord(key, data))
	if err != nil {
		return fmt.Errorf("encode failed: %w", err)
	}

	args := map[string]interface{}{
		"path":       b.filePath(key),
		"mode":       "overwrite",
		"autorename": false,
		"mute":       true,
	}

	if rev := b.rev(key); rev != "" {
		args["mode"] = map[string]string{
			".tag":   "update",
			"update": rev,
		}
	}

	argsJSON, err := json.Marshal(args)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		b.contentURL+"/files/upload",
		bytes.NewReader(encoded))
	if err != nil {
		return err
	}

	req.Header.Set("Authorization", "Bearer "+b.accessToken)
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Dropbox-API-Arg", string(argsJSON))

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusConflict {
		b.setRev(key, "")
		return ErrConflict
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("upload failed with status %d: %s", resp.StatusCode, string(body))
	}

	var uploadResp struct {
		Rev string `json:"rev"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&uploadResp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	b.setRev(key, uploadResp.Rev)
	return nil
}

// Read downloads the value stored under key
func (b *DropboxBackend) Read(ctx context.Context, key string) ([]byte, error) {
	if b.accessToken == "" {
		return nil, ErrNotConfigured
	}
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	argsJSON, _ := json.Marshal(map[string]string{"path": b.filePath(key)})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		b.contentURL+"/files/download",
		nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+b.accessToken)
	req.Header.Set("Dropbox-API-Arg", string(argsJSON))

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusConflict {
		body, _ := io.ReadAll(resp.Body)
		if isDropboxNotFound(body) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("download failed: %s", string(body))
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("download failed with status %d: %s", resp.StatusCode, string(body))
	}

	if apiResult := resp.Header.Get("Dropbox-API-Result"); apiResult != "" {
		var meta struct {
			Rev string `json:"rev"`
		}
		if json.Unmarshal([]byte(apiResult), &meta) == nil {
			b.setRev(key, meta.Rev)
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body failed: %w", err)
	}

	value, err := storage.DecodeValue(key, data)
	if err != nil {
		return nil, fmt.Errorf("decode failed: %w", err)
	}

	return value, nil
}

// Exists returns true if the file for key exists in Dropbox
func (b *DropboxBackend) Exists(ctx context.Context, key string) bool {
	if ValidateKey(key) != nil {
		return false
	}
	_, err := b.getMetadata(ctx, key)
	return err == nil
}

// dropboxMetadata represents file metadata from Dropbox
type dropboxMetadata struct {
	Rev            string    `json:"rev"`
	ContentHash    string    `json:"content_hash"`
	ServerModified time.Time `json:"server_modified"`
	Size           int64     `json:"size"`
}

func (b *DropboxBackend) getMetadata(ctx context.Context, key string) (*dropboxMetadata, error) {
	if b.accessToken == "" {
		return nil, ErrNotConfigured
	}

	argsJSON, _ := json.Marshal(map[string]string{"path": b.filePath(key)})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		b.apiURL+"/files/get_metadata",
		bytes.NewReader(argsJSON))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+b.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusConflict {
		return nil, ErrNotFound
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("get_metadata failed with status %d: %s", resp.StatusCode, string(body))
	}

	var meta dropboxMetadata
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

func (b *DropboxBackend) rev(key string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.revs[key]
}

func (b *DropboxBackend) setRev(key, rev string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if rev == "" {
		delete(b.revs, key)
		return
	}
	b.revs[key] = rev
}

// GetAuthURL returns the OAuth authorization URL for user authentication
func (b *DropboxBackend) GetAuthURL(state string) string {
	return b.ensureOAuthConfig().AuthCodeURL(state,
		oauth2.SetAuthURLParam("token_access_type", "offline"),
	)
}

// ExchangeCode exchanges an authorization code for tokens and stores them
func (b *DropboxBackend) ExchangeCode(ctx context.Context, code string) error {
	token, err := b.ensureOAuthConfig().Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to exchange code: %w", err)
	}

	b.accessToken = token.AccessToken
	b.refreshToken = token.RefreshToken
	b.tokenExpiry = token.Expiry

	return b.saveTokens()
}

// SetTokens sets the OAuth tokens directly
func (b *DropboxBackend) SetTokens(accessToken, refreshToken string, expiry time.Time) {
	b.accessToken = accessToken
	b.refreshToken = refreshToken
	b.tokenExpiry = expiry
}

// IsAuthenticated returns true if the backend has valid tokens
func (b *DropboxBackend) IsAuthenticated() bool {
	return b.accessToken != ""
}

func (b *DropboxBackend) refreshAccessToken(ctx context.Context) error {
	if b.refreshToken == "" {
		return fmt.Errorf("no refresh token available")
	}

	token := &oauth2.Token{
		RefreshToken: b.refreshToken,
	}

	newToken, err := b.ensureOAuthConfig().TokenSource(ctx, token).Token()
	if err != nil {
		return err
	}

	b.accessToken = newToken.AccessToken
	if newToken.RefreshToken != "" {
		b.refreshToken = newToken.RefreshToken
	}
	b.tokenExpiry = newToken.Expiry

	logger.Debug().Time("expiry", b.tokenExpiry).Msg("refreshed Dropbox access token")
	return b.saveTokens()
}

func (b *DropboxBackend) loadTokens() error {
	item, err := loadSecret(SecretService, secretAccount)
	if err != nil {
		return err
	}

	var tokens dropboxTokens
	if err := json.Unmarshal(item, &tokens); err != nil {
		return err
	}

	b.accessToken = tokens.AccessToken
	b.refreshToken = tokens.RefreshToken
	b.tokenExpiry = tokens.Expiry

	return nil
}

func (b *DropboxBackend) saveTokens() error {
	data, err := json.Marshal(dropboxTokens{
		AccessToken:  b.accessToken,
		RefreshToken: b.refreshToken,
		Expiry:       b.tokenExpiry,
	})
	if err != nil {
		return err
	}

	return saveSecret(SecretService, secretAccount, data)
}

// ClearTokens removes stored tokens (for logout)
func (b *DropboxBackend) ClearTokens() error {
	b.accessToken = ""
	b.refreshToken = ""
	b.tokenExpiry = time.Time{}
	return deleteSecret(SecretService, secretAccount)
}

// isDropboxNotFound checks a 409 error body for a path/not_found tag
func isDropboxNotFound(body []byte) bool {
	var errResp struct {
		Error struct {
			Tag  string `json:".tag"`
			Path struct {
				Tag string `json:".tag"`
			} `json:"path"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &errResp) == nil && errResp.Error.Path.Tag != "" {
		return errResp.Error.Path.Tag == "not_found"
	}
	return strings.Contains(string(body), "not_found")
}
