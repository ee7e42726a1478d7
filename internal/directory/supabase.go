package directory

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	kerrors "github.com/PolarWolf314/ripenv/internal/errors"
	"github.com/PolarWolf314/ripenv/internal/secrets"
)

// requestsPerSecond paces calls to the hosted API.
const requestsPerSecond = 5

// Supabase talks to the ripenv web app's PostgREST API.
type Supabase struct {
	client  *resty.Client
	limiter *rate.Limiter
}

type memberRow struct {
	Email     string  `json:"email"`
	PublicKey *string `json:"public_key"`
}

type projectRow struct {
	ID string `json:"id"`
}

// NewSupabase builds a client for cfg.SupabaseURL. Every request carries the
// anon key both as apikey and as bearer token.
func NewSupabase(cfg Config) *Supabase {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	cli := resty.New().
		SetBaseURL(strings.TrimRight(cfg.SupabaseURL, "/")+"/rest/v1").
		SetTimeout(cfg.Timeout).
		SetHeader("apikey", cfg.SupabaseAnonKey).
		SetAuthToken(cfg.SupabaseAnonKey).
		SetHeader("Accept", "application/json")

	return &Supabase{
		client:  cli,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
	}
}

func (s *Supabase) request(ctx context.Context) (*resty.Request, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return s.client.R().SetContext(ctx), nil
}

// Recipients fetches members of projectID that have registered a public key.
//
// Returns ErrProjectNotFound when the project does not exist and
// ErrNoRecipients when it exists but nobody has a key yet.
func (s *Supabase) Recipients(ctx context.Context, projectID string) (*secrets.RecipientsExport, error) {
	req, err := s.request(ctx)
	if err != nil {
		return nil, err
	}

	var rows []memberRow
	resp, err := req.
		SetQueryParams(map[string]string{
			"select":     "email,public_key",
			"project_id": "eq." + projectID,
			"public_key": "not.is.null",
		}).
		SetResult(&rows).
		Get("/project_members")
	if err != nil {
		return nil, fmt.Errorf("fetch project recipients: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return nil, fmt.Errorf("fetch project recipients: %w", err)
	}

	recipients := make([]secrets.Recipient, 0, len(rows))
	for _, row := range rows {
		if row.PublicKey == nil || *row.PublicKey == "" {
			continue
		}
		recipients = append(recipients, secrets.Recipient{Email: row.Email, PublicKey: *row.PublicKey})
	}

	if len(recipients) == 0 {
		exists, err := s.projectExists(ctx, projectID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, fmt.Errorf("%w: %s", kerrors.ErrProjectNotFound, projectID)
		}
		return nil, fmt.Errorf("%w: %s; members need to generate keypairs in the web app first",
			kerrors.ErrNoRecipients, projectID)
	}

	export := &secrets.RecipientsExport{ProjectID: projectID, Recipients: recipients}
	if err := export.Validate(); err != nil {
		return nil, fmt.Errorf("directory returned invalid recipients: %w", err)
	}
	return export, nil
}

// VerifyAccess reports whether email is a member of projectID. Emails are
// compared case-insensitively.
func (s *Supabase) VerifyAccess(ctx context.Context, projectID, email string) (bool, error) {
	req, err := s.request(ctx)
	if err != nil {
		return false, err
	}

	var rows []memberRow
	resp, err := req.
		SetQueryParams(map[string]string{
			"select":     "email",
			"project_id": "eq." + projectID,
			"email":      "ilike." + email,
		}).
		SetResult(&rows).
		Get("/project_members")
	if err != nil {
		return false, fmt.Errorf("verify project access: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return false, fmt.Errorf("verify project access: %w", err)
	}

	for _, row := range rows {
		if strings.EqualFold(row.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

// TouchProject sets the project's last_edited_at to now.
func (s *Supabase) TouchProject(ctx context.Context, projectID string) error {
	req, err := s.request(ctx)
	if err != nil {
		return err
	}

	var rows []projectRow
	resp, err := req.
		SetQueryParam("id", "eq."+projectID).
		SetHeader("Prefer", "return=representation").
		SetBody(map[string]string{"last_edited_at": time.Now().UTC().Format(time.RFC3339)}).
		SetResult(&rows).
		Patch("/projects")
	if err != nil {
		return fmt.Errorf("update project timestamp: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return fmt.Errorf("update project timestamp: %w", err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("update project timestamp: %w: %s", kerrors.ErrProjectNotFound, projectID)
	}
	return nil
}

func (s *Supabase) projectExists(ctx context.Context, projectID string) (bool, error) {
	req, err := s.request(ctx)
	if err != nil {
		return false, err
	}

	var rows []projectRow
	resp, err := req.
		SetQueryParams(map[string]string{"select": "id", "id": "eq." + projectID}).
		SetResult(&rows).
		Get("/projects")
	if err != nil {
		return false, fmt.Errorf("check project: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return false, fmt.Errorf("check project: %w", err)
	}
	return len(rows) > 0, nil
}

func mapHTTPError(resp *resty.Response) error {
	if resp.StatusCode() >= http.StatusOK && resp.StatusCode() < http.StatusMultipleChoices {
		return nil
	}

	body := strings.TrimSpace(string(resp.Body()))

	switch resp.StatusCode() {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", kerrors.ErrDirectoryUnauthorized, body)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", kerrors.ErrProjectNotFound, body)
	default:
		if body == "" {
			body = http.StatusText(resp.StatusCode())
		}
		return fmt.Errorf("http %d: %s", resp.StatusCode(), body)
	}
}
