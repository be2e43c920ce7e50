package clinicapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/clinova/beacon/internal/config"
	"github.com/clinova/beacon/internal/domain"
	"github.com/clinova/beacon/internal/logging"
	"github.com/clinova/beacon/internal/ratelimiting"
	"github.com/clinova/beacon/internal/reporting"
)

const userAgent = "beacon/1.0 (+https://github.com/clinova/beacon)"

// Upstream calls past this duration hit the http client timeout anyway
const maxClinicAPICallTime = 10 * time.Second

type HttpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClinicAPI fetches raw payloads from the upstream clinic API. Implementations
// return the body, the status code and the time the response was received;
// interpreting the payload is the provider's job.
type ClinicAPI interface {
	GetClinicSettings(ctx context.Context, clinicID string) ([]byte, int, time.Time, error)
	ListAppointments(ctx context.Context, clinicID string, from, to time.Time) ([]byte, int, time.Time, error)
	GetPatient(ctx context.Context, clinicID string, patientID string) ([]byte, int, time.Time, error)
}

type mockedClinicAPI struct{}

func (api *mockedClinicAPI) GetClinicSettings(ctx context.Context, clinicID string) ([]byte, int, time.Time, error) {
	return []byte(fmt.Sprintf(`{"clinic":{"id":"%s","name":"Mock Clinic","timezone":"Asia/Tokyo","slotMinutes":30,"bookingLeadDays":14,"closedWeekdays":[0]}}`, clinicID)), 200, time.Now(), nil
}

func (api *mockedClinicAPI) ListAppointments(ctx context.Context, clinicID string, from, to time.Time) ([]byte, int, time.Time, error) {
	return []byte(`{"appointments":[]}`), 200, time.Now(), nil
}

func (api *mockedClinicAPI) GetPatient(ctx context.Context, clinicID string, patientID string) ([]byte, int, time.Time, error) {
	return []byte(fmt.Sprintf(`{"patient":{"id":"%s","displayName":"Mock Patient"}}`, patientID)), 200, time.Now(), nil
}

type clinicAPIImpl struct {
	httpClient HttpClient
	limiter    ratelimiting.OutboundLimiter
	baseURL    string
	apiKey     string
}

func (api clinicAPIImpl) GetClinicSettings(ctx context.Context, clinicID string) ([]byte, int, time.Time, error) {
	return api.get(ctx, fmt.Sprintf("%s/v1/clinics/%s/settings", api.baseURL, url.PathEscape(clinicID)))
}

func (api clinicAPIImpl) ListAppointments(ctx context.Context, clinicID string, from, to time.Time) ([]byte, int, time.Time, error) {
	query := url.Values{}
	query.Set("from", from.UTC().Format(time.RFC3339))
	query.Set("to", to.UTC().Format(time.RFC3339))
	return api.get(ctx, fmt.Sprintf("%s/v1/clinics/%s/appointments?%s", api.baseURL, url.PathEscape(clinicID), query.Encode()))
}

func (api clinicAPIImpl) GetPatient(ctx context.Context, clinicID string, patientID string) ([]byte, int, time.Time, error) {
	return api.get(ctx, fmt.Sprintf("%s/v1/clinics/%s/patients/%s", api.baseURL, url.PathEscape(clinicID), url.PathEscape(patientID)))
}

func (api clinicAPIImpl) get(ctx context.Context, requestURL string) ([]byte, int, time.Time, error) {
	logger := logging.FromContext(ctx)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		err := fmt.Errorf("failed to create request: %w", err)
		logger.Error(err.Error())
		reporting.Report(ctx, err)
		return []byte{}, -1, time.Time{}, err
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", api.apiKey))

	start := time.Now()
	var resp *http.Response
	ran := api.limiter.Limit(ctx, maxClinicAPICallTime, func() {
		resp, err = api.httpClient.Do(req)
	})
	if !ran {
		err := fmt.Errorf("outbound call budget exhausted: %w", domain.ErrTemporarilyUnavailable)
		logger.Warn(err.Error())
		return []byte{}, -1, time.Time{}, err
	}
	if err != nil {
		err := fmt.Errorf("failed to send request: %w", err)
		logger.Error(err.Error())
		reporting.Report(ctx, err)
		return []byte{}, -1, time.Time{}, err
	}

	queriedAt := time.Now()

	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		err := fmt.Errorf("failed to read response body: %w", err)
		logger.Error(err.Error())
		reporting.Report(ctx, err)
		return []byte{}, -1, time.Time{}, err
	}
	logger.Info("clinic api request completed", "url", requestURL, "status", resp.StatusCode, "duration", time.Since(start).String())

	return data, resp.StatusCode, queriedAt, nil
}

func NewClinicAPI(httpClient HttpClient, limiter ratelimiting.OutboundLimiter, baseURL, apiKey string) ClinicAPI {
	return clinicAPIImpl{
		httpClient: httpClient,
		limiter:    limiter,
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

func NewClinicAPIOrMock(config config.Config, httpClient HttpClient, limiter ratelimiting.OutboundLimiter) (ClinicAPI, error) {
	if config.ClinicAPIURL() != "" && config.ClinicAPIKey() != "" {
		return NewClinicAPI(httpClient, limiter, config.ClinicAPIURL(), config.ClinicAPIKey()), nil
	}
	if config.IsDevelopment() {
		return &mockedClinicAPI{}, nil
	}
	return nil, fmt.Errorf("missing clinic API url or key in non-development environment")
}
