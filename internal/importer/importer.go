// Package importer loads batches of external card records into a store.
// Each record succeeds or fails on its own; a bad record never stops the
// batch.
package importer

import (
	"context"
	"fmt"
	"os"

	"github.com/arcanaland/gridsmith/internal/card"
	"github.com/arcanaland/gridsmith/internal/logging"
	"github.com/arcanaland/gridsmith/internal/normalize"
	"github.com/arcanaland/gridsmith/internal/validator"
)

// Creator is the part of a store the importer needs.
type Creator interface {
	Create(ctx context.Context, c card.Card) (card.Card, error)
}

type Options struct {
	// Coerce converts numeric strings such as "2" into numbers. Without it
	// such records fail.
	Coerce bool
}

type ItemError struct {
	Identifier string `json:"identifier"`
	Reason     string `json:"reason"`
}

type Result struct {
	Success int         `json:"success"`
	Failed  int         `json:"failed"`
	Errors  []ItemError `json:"errors"`
	// Created holds the stored cards in input order.
	Created []card.Card `json:"-"`
}

type Importer struct {
	store     Creator
	validator *validator.Validator
	opts      Options
	log       logging.Logger
}

func New(store Creator, v *validator.Validator, opts Options, log logging.Logger) *Importer {
	if v == nil {
		v = validator.NewValidator()
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Importer{store: store, validator: v, opts: opts, log: log.With("component", "importer")}
}

// ImportBatch processes records in order. Once ctx is done the remaining
// records are counted as failed without being attempted.
func (im *Importer) ImportBatch(ctx context.Context, records []map[string]any) Result {
	res := Result{Errors: []ItemError{}, Created: []card.Card{}}
	for i, raw := range records {
		id := normalize.Identifier(raw, i)
		if err := ctx.Err(); err != nil {
			res.fail(id, err)
			continue
		}
		created, err := im.importOne(ctx, raw)
		if err != nil {
			im.log.Warn("record rejected", "record", id, "error", err)
			res.fail(id, err)
			continue
		}
		res.Success++
		res.Created = append(res.Created, created)
	}
	im.log.Info("import finished", "success", res.Success, "failed", res.Failed)
	return res
}

func (r *Result) fail(identifier string, err error) {
	r.Failed++
	r.Errors = append(r.Errors, ItemError{Identifier: identifier, Reason: err.Error()})
}

func (im *Importer) importOne(ctx context.Context, raw map[string]any) (card.Card, error) {
	c, err := normalize.Decode(normalize.Normalize(raw), normalize.DecodeOptions{Coerce: im.opts.Coerce})
	if err != nil {
		return card.Card{}, err
	}
	c, found := validator.CorrectCard(c)
	if len(found) > 0 {
		return card.Card{}, &validator.ViolationError{Violations: found}
	}
	if err := im.validator.Check(c); err != nil {
		return card.Card{}, err
	}
	return im.store.Create(ctx, c)
}

// ImportDocument parses data and imports every record in it.
func (im *Importer) ImportDocument(ctx context.Context, data []byte) (Result, error) {
	records, err := ParseDocument(data)
	if err != nil {
		return Result{}, err
	}
	return im.ImportBatch(ctx, records), nil
}

func (im *Importer) ImportFile(ctx context.Context, path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("read import file: %w", err)
	}
	return im.ImportDocument(ctx, data)
}
