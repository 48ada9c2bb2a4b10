package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/giftvault/internal/logger"
)

// Identity 外部身份服务返回的身份（本服务只持有不透明标识与邮箱）
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Directory 身份目录查询接口；查无此人时返回 (nil, nil)
type Directory interface {
	LookupByEmail(ctx context.Context, email string) (*Identity, error)
}

// HTTPDirectory 通过 HTTP 查询外部身份目录
type HTTPDirectory struct {
	baseURL string
	client  *http.Client
}

// NewHTTPDirectory 创建身份目录客户端
func NewHTTPDirectory(baseURL string, timeout time.Duration) *HTTPDirectory {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &HTTPDirectory{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// LookupByEmail 按邮箱查询身份
func (d *HTTPDirectory) LookupByEmail(ctx context.Context, email string) (*Identity, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, nil
	}
	if d.baseURL == "" {
		return nil, fmt.Errorf("identity directory url not configured")
	}

	endpoint := d.baseURL + "/identities?email=" + url.QueryEscape(email)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		logger.Warnw("identity_directory_lookup_failed", "error", err)
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, nil
	default:
		return nil, fmt.Errorf("identity directory returned status %d", resp.StatusCode)
	}

	var identity Identity
	if err := json.NewDecoder(resp.Body).Decode(&identity); err != nil {
		return nil, err
	}
	if strings.TrimSpace(identity.ID) == "" {
		return nil, nil
	}
	return &identity, nil
}
