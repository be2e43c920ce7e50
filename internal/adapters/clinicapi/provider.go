package clinicapi

import (
	"context"
	"fmt"
	"time"

	"github.com/clinova/beacon/internal/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type clinicAPIProvider struct {
	api ClinicAPI

	metrics clinicAPIProviderMetricsCollection
}

func NewProvider(api ClinicAPI) (ClinicProvider, error) {
	meter := otel.Meter("clinicapi/provider")
	metrics, err := setupClinicAPIProviderMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("failed to set up metrics: %w", err)
	}

	return &clinicAPIProvider{
		api: api,

		metrics: metrics,
	}, nil
}

func (p *clinicAPIProvider) GetClinicSettings(ctx context.Context, clinicID string) (*domain.ClinicSettings, error) {
	data, statusCode, queriedAt, err := p.api.GetClinicSettings(ctx, clinicID)
	if err != nil {
		// NOTE: ClinicAPI implementations handle their own error reporting
		return nil, fmt.Errorf("failed to get clinic settings: %w", err)
	}

	response, err := parsePayload[clinicSettingsResponse](ctx, data, statusCode)
	if err != nil {
		return nil, err
	}

	settings, err := settingsToDomain(response, clinicID, queriedAt)
	p.count(ctx, "settings", err == nil)
	if err != nil {
		return nil, fmt.Errorf("failed to convert clinic settings: %w", err)
	}

	return settings, nil
}

func (p *clinicAPIProvider) ListAppointments(ctx context.Context, clinicID string, from, to time.Time) ([]domain.Appointment, error) {
	data, statusCode, queriedAt, err := p.api.ListAppointments(ctx, clinicID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}

	response, err := parsePayload[appointmentListResponse](ctx, data, statusCode)
	if err != nil {
		return nil, err
	}

	appointments, err := appointmentsToDomain(response, clinicID, queriedAt)
	p.count(ctx, "appointments", err == nil)
	if err != nil {
		return nil, fmt.Errorf("failed to convert appointments: %w", err)
	}

	return appointments, nil
}

func (p *clinicAPIProvider) GetPatient(ctx context.Context, clinicID string, patientID string) (*domain.Patient, error) {
	data, statusCode, queriedAt, err := p.api.GetPatient(ctx, clinicID, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}

	response, err := parsePayload[patientResponse](ctx, data, statusCode)
	if err != nil {
		return nil, err
	}

	patient, err := patientToDomain(response, clinicID, queriedAt)
	p.count(ctx, "patient", err == nil)
	if err != nil {
		return nil, fmt.Errorf("failed to convert patient: %w", err)
	}

	return patient, nil
}

func (p *clinicAPIProvider) count(ctx context.Context, resource string, success bool) {
	p.metrics.requestCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("resource", resource),
		attribute.Bool("success", success),
	))
}

type clinicAPIProviderMetricsCollection struct {
	requestCount metric.Int64Counter
}

func setupClinicAPIProviderMetrics(meter metric.Meter) (clinicAPIProviderMetricsCollection, error) {
	requestCount, err := meter.Int64Counter("clinicapi/provider/requests")
	if err != nil {
		return clinicAPIProviderMetricsCollection{}, fmt.Errorf("failed to create metric: %w", err)
	}

	return clinicAPIProviderMetricsCollection{
		requestCount: requestCount,
	}, nil
}
