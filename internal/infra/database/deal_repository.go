package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/xavierca1/ligue-crm/internal/entity"
	"github.com/xavierca1/ligue-crm/internal/infra/recordstore"
	"go.uber.org/zap"
)

const (
	DealTable    = "deal_c"
	ContactTable = "contact_c"
)

var dealFields = []recordstore.Field{
	recordstore.Col("Name"),
	recordstore.Col("name_c"),
	recordstore.RefCol("contact_id_c", "Name"),
	recordstore.Col("value_c"),
	recordstore.Col("status_c"),
	recordstore.Col("notes_c"),
	recordstore.Col("ModifiedOn"),
}

// StoreError is a failure reported by the record store itself, either on
// the envelope or on a per-record result.
type StoreError struct {
	Op      string
	Message string
}

func (e *StoreError) Error() string {
	return e.Message
}

type DealRepository struct {
	Store  recordstore.Store
	logger *zap.Logger
}

func NewDealRepository(store recordstore.Store, logger *zap.Logger) *DealRepository {
	return &DealRepository{
		Store:  store,
		logger: logger.With(zap.String("component", "deal_repository")),
	}
}

func (r *DealRepository) FindAll(ctx context.Context) ([]entity.Deal, error) {
	resp, err := r.Store.FetchRecords(ctx, DealTable, recordstore.FetchParams{Fields: dealFields})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch deals: %w", err)
	}
	if !resp.Success {
		r.logger.Error("fetch deals rejected", zap.String("message", resp.Message))
		return nil, &StoreError{Op: "fetch", Message: resp.Message}
	}

	deals := []entity.Deal{}
	if len(resp.Data) == 0 || string(resp.Data) == "null" {
		return deals, nil
	}
	if err := json.Unmarshal(resp.Data, &deals); err != nil {
		return nil, fmt.Errorf("failed to decode deals: %w", err)
	}
	return deals, nil
}

// FindByID returns entity.ErrDealNotFound when the store rejects the read.
func (r *DealRepository) FindByID(ctx context.Context, id int) (*entity.Deal, error) {
	resp, err := r.Store.GetRecordByID(ctx, DealTable, id, recordstore.FetchParams{Fields: dealFields})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch deal %d: %w", id, err)
	}
	if !resp.Success || len(resp.Data) == 0 || string(resp.Data) == "null" {
		r.logger.Debug("deal not returned", zap.Int("deal_id", id), zap.String("message", resp.Message))
		return nil, entity.ErrDealNotFound
	}

	var deal entity.Deal
	if err := json.Unmarshal(resp.Data, &deal); err != nil {
		return nil, fmt.Errorf("failed to decode deal %d: %w", id, err)
	}
	return &deal, nil
}

func (r *DealRepository) Create(ctx context.Context, d *entity.Deal) (*entity.Deal, error) {
	resp, err := r.Store.CreateRecord(ctx, DealTable, recordstore.RecordsParams{
		Records: []recordstore.Record{writeRecord(d)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create deal: %w", err)
	}
	created, err := r.firstResult("create", resp, d)
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateFields writes name, contact, value and status. Notes are left as
// they are.
func (r *DealRepository) UpdateFields(ctx context.Context, d *entity.Deal) (*entity.Deal, error) {
	rec := writeRecord(d)
	rec["Id"] = d.ID

	resp, err := r.Store.UpdateRecord(ctx, DealTable, recordstore.RecordsParams{
		Records: []recordstore.Record{rec},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update deal %d: %w", d.ID, err)
	}
	return r.firstResult("update", resp, d)
}

// UpdateNotes writes only notes_c.
func (r *DealRepository) UpdateNotes(ctx context.Context, id int, notes string) error {
	resp, err := r.Store.UpdateRecord(ctx, DealTable, recordstore.RecordsParams{
		Records: []recordstore.Record{{"Id": id, "notes_c": notes}},
	})
	if err != nil {
		return fmt.Errorf("failed to update notes of deal %d: %w", id, err)
	}
	_, err = r.firstResult("update", resp, &entity.Deal{ID: id})
	return err
}

func (r *DealRepository) Delete(ctx context.Context, id int) error {
	resp, err := r.Store.DeleteRecord(ctx, DealTable, recordstore.DeleteParams{RecordIDs: []int{id}})
	if err != nil {
		return fmt.Errorf("failed to delete deal %d: %w", id, err)
	}
	if !resp.Success {
		return &StoreError{Op: "delete", Message: resp.Message}
	}
	if failed := resp.Failed(); len(failed) > 0 {
		r.logger.Error("delete deal rejected", zap.Int("deal_id", id), zap.String("message", failed[0].Message))
		return &StoreError{Op: "delete", Message: messageOr(failed[0].Message, "Failed to delete deal")}
	}
	return nil
}

// firstResult unwraps a single-record write. Without per-record results,
// or when an accepted result cannot be decoded, the submitted deal is
// returned as written: the store has already committed it.
func (r *DealRepository) firstResult(op string, resp *recordstore.Response, submitted *entity.Deal) (*entity.Deal, error) {
	if !resp.Success {
		r.logger.Error(op+" deal rejected", zap.Int("deal_id", submitted.ID), zap.String("message", resp.Message))
		return nil, &StoreError{Op: op, Message: messageOr(resp.Message, "Failed to "+op+" deal")}
	}
	if failed := resp.Failed(); len(failed) > 0 {
		r.logger.Error(op+" deal rejected",
			zap.Int("deal_id", submitted.ID),
			zap.Int("failed", len(failed)),
			zap.String("message", failed[0].Message),
		)
		return nil, &StoreError{Op: op, Message: messageOr(failed[0].Message, "Failed to "+op+" deal")}
	}
	if len(resp.Results) == 0 || len(resp.Results[0].Data) == 0 {
		out := *submitted
		return &out, nil
	}

	var deal entity.Deal
	if err := json.Unmarshal(resp.Results[0].Data, &deal); err != nil {
		r.logger.Warn(op+" deal result not decodable, using submitted deal",
			zap.Int("deal_id", submitted.ID),
			zap.Error(err),
		)
		out := *submitted
		return &out, nil
	}
	if deal.ID == 0 {
		deal.ID = submitted.ID
	}
	return &deal, nil
}

func writeRecord(d *entity.Deal) recordstore.Record {
	rec := recordstore.Record{
		"Name":     d.Name,
		"name_c":   d.Name,
		"value_c":  d.Value.InexactFloat64(),
		"status_c": string(d.Status.OrDefault()),
	}
	if d.Contact.ID > 0 {
		rec["contact_id_c"] = d.Contact.ID
	} else {
		rec["contact_id_c"] = nil
	}
	return rec
}

func messageOr(msg, fallback string) string {
	if msg == "" {
		return fallback
	}
	return msg
}

// IsStoreError reports whether err carries a record store rejection.
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}
