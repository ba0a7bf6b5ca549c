package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"backoffice/internal/model"
	"backoffice/internal/repository"
)

type SaveVehicleRequest struct {
	VehicleType  string          `json:"vehicle_type"`
	Make         string          `json:"make"`
	Color        string          `json:"color"`
	GVW          decimal.Decimal `json:"gvw"`
	EngineNumber string          `json:"engine_number"`
	SerialNumber string          `json:"serial_number"`
	PlateNumber  string          `json:"plate_number"`
	CSNumber     string          `json:"cs_number"`
	Description  string          `json:"description" binding:"required"`
}

type VehicleService interface {
	CreateVehicle(ctx context.Context, req SaveVehicleRequest) (model.Vehicle, error)
	UpdateVehicle(ctx context.Context, id uint, req SaveVehicleRequest) (model.Vehicle, error)
	DeleteVehicle(ctx context.Context, id uint) error
	GetVehicle(ctx context.Context, id uint) (model.Vehicle, error)
	ListVehicles(ctx context.Context, search string, page, limit int) ([]model.Vehicle, int64, error)
}

type vehicleService struct {
	vehicleRepo repository.VehicleRepository
	recorder    recorder
}

func NewVehicleService(vehicleRepo repository.VehicleRepository, auditRepo repository.AuditRepository, notifier Notifier, log *zap.Logger) VehicleService {
	return &vehicleService{vehicleRepo: vehicleRepo, recorder: newRecorder(auditRepo, notifier, log)}
}

func applyVehicle(v *model.Vehicle, req SaveVehicleRequest) error {
	desc := strings.TrimSpace(req.Description)
	if desc == "" {
		return invalidf("description is required")
	}
	if req.GVW.IsNegative() {
		return invalidf("gvw cannot be negative")
	}

	v.VehicleType = req.VehicleType
	v.Make = req.Make
	v.Color = req.Color
	v.GVW = req.GVW
	v.EngineNumber = req.EngineNumber
	v.SerialNumber = req.SerialNumber
	v.PlateNumber = req.PlateNumber
	v.CSNumber = req.CSNumber
	v.Description = desc
	return nil
}

func (s *vehicleService) CreateVehicle(ctx context.Context, req SaveVehicleRequest) (model.Vehicle, error) {
	var vehicle model.Vehicle
	if err := applyVehicle(&vehicle, req); err != nil {
		return model.Vehicle{}, err
	}
	if err := s.vehicleRepo.Create(ctx, &vehicle); err != nil {
		return model.Vehicle{}, fmt.Errorf("failed to create vehicle: %w", err)
	}

	s.recorder.audit(ctx, model.ActionCreateVehicle, vehicle.ID, vehicle.Description, req)
	s.recorder.notify("vehicles", EventCreated, vehicle.ID)
	return vehicle, nil
}

func (s *vehicleService) UpdateVehicle(ctx context.Context, id uint, req SaveVehicleRequest) (model.Vehicle, error) {
	vehicle, err := s.vehicleRepo.FindByID(ctx, id)
	if err != nil {
		return model.Vehicle{}, lookupError("vehicle", id, err)
	}
	if err := applyVehicle(vehicle, req); err != nil {
		return model.Vehicle{}, err
	}
	if err := s.vehicleRepo.Update(ctx, vehicle); err != nil {
		return model.Vehicle{}, fmt.Errorf("failed to update vehicle: %w", err)
	}

	s.recorder.audit(ctx, model.ActionUpdateVehicle, vehicle.ID, vehicle.Description, req)
	s.recorder.notify("vehicles", EventUpdated, vehicle.ID)
	return *vehicle, nil
}

func (s *vehicleService) DeleteVehicle(ctx context.Context, id uint) error {
	vehicle, err := s.vehicleRepo.FindByID(ctx, id)
	if err != nil {
		return lookupError("vehicle", id, err)
	}
	n, err := s.vehicleRepo.CountInvoices(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check vehicle invoices: %w", err)
	}
	if n > 0 {
		return conflictf("vehicle %d is on %d sales invoice(s)", id, n)
	}

	if err := s.vehicleRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete vehicle: %w", err)
	}

	s.recorder.audit(ctx, model.ActionDeleteVehicle, id, vehicle.Description, map[string]uint{"deleted_id": id})
	s.recorder.notify("vehicles", EventDeleted, id)
	return nil
}

func (s *vehicleService) GetVehicle(ctx context.Context, id uint) (model.Vehicle, error) {
	vehicle, err := s.vehicleRepo.FindByID(ctx, id)
	if err != nil {
		return model.Vehicle{}, lookupError("vehicle", id, err)
	}
	return *vehicle, nil
}

func (s *vehicleService) ListVehicles(ctx context.Context, search string, page, limit int) ([]model.Vehicle, int64, error) {
	vehicles, total, err := s.vehicleRepo.List(ctx, search, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch vehicles: %w", err)
	}
	if vehicles == nil {
		vehicles = []model.Vehicle{}
	}
	return vehicles, total, nil
}
