package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yukikurage/team-task-api/internal/constants"
	apierrors "github.com/yukikurage/team-task-api/internal/errors"
	"github.com/yukikurage/team-task-api/internal/models"
	"github.com/yukikurage/team-task-api/internal/utils"
	"github.com/yukikurage/team-task-api/pkg/logger"
)

// HTTPResolver asks the instance that owns the users table for identities.
// Transport failures and 5xx answers are retried with exponential backoff.
type HTTPResolver struct {
	baseURL    string
	serviceKey string
	client     *http.Client
	retry      utils.RetryConfig
}

// HTTPConfig configures an HTTPResolver.
type HTTPConfig struct {
	BaseURL    string
	ServiceKey string
	Timeout    time.Duration
	Retries    int
	// InitialDelay is the first backoff delay; defaults to 100ms.
	InitialDelay time.Duration
}

func NewHTTPResolver(cfg HTTPConfig) *HTTPResolver {
	delay := cfg.InitialDelay
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}
	return &HTTPResolver{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		serviceKey: cfg.ServiceKey,
		client:     &http.Client{Timeout: cfg.Timeout},
		retry: utils.RetryConfig{
			Attempts:     cfg.Retries + 1,
			InitialDelay: delay,
			MaxDelay:     2 * time.Second,
			Multiplier:   2,
		},
	}
}

func (r *HTTPResolver) Resolve(ctx context.Context, id uuid.UUID) (*Identity, error) {
	var ident *Identity
	attempt := 0
	err := utils.Retry(ctx, r.retry, func(ctx context.Context) error {
		attempt++
		result, err := r.fetch(ctx, id)
		if err != nil {
			logger.Debug().Err(err).Int("attempt", attempt).Str("user_id", id.String()).Msg("identity lookup failed")
			return err
		}
		ident = result
		return nil
	})
	if err != nil {
		if apierrors.IsKind(err, apierrors.KindNotFound) {
			return nil, ErrNotFound
		}
		return nil, apierrors.Wrap(apierrors.KindUpstream, "Identity service unavailable", err)
	}
	return ident, nil
}

func (r *HTTPResolver) fetch(ctx context.Context, id uuid.UUID) (*Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/internal/users/"+id.String(), nil)
	if err != nil {
		return nil, utils.Permanent(err)
	}
	req.Header.Set(constants.HeaderServiceKey, r.serviceKey)
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return nil, utils.Permanent(ErrNotFound)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("identity service returned %d", resp.StatusCode)
	default:
		return nil, utils.Permanent(fmt.Errorf("identity service returned %d", resp.StatusCode))
	}

	var ident Identity
	if err := json.NewDecoder(resp.Body).Decode(&ident); err != nil {
		return nil, utils.Permanent(fmt.Errorf("decode identity: %w", err))
	}
	role, err := models.ParseRole(string(ident.Role))
	if err != nil {
		return nil, utils.Permanent(err)
	}
	ident.Role = role
	return &ident, nil
}
