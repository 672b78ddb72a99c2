// Copyright 2025 Gosayram Contributors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package resultstore persists vector set run reports as JSON in a
// storage backend.
package resultstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Gosayram/openacvp/internal/storage"
	"github.com/Gosayram/openacvp/internal/vectorset"
)

const runPrefix = "runs/"

var (
	// ErrNotFound is returned when no report exists for an id
	ErrNotFound = errors.New("run not found")
	// ErrInvalidID is returned for ids that are not UUIDs
	ErrInvalidID = errors.New("invalid run id")
)

// Report is the stored outcome of one vector set run
type Report struct {
	ID          string              `json:"id"`
	CreatedAt   time.Time           `json:"createdAt"`
	VectorSetID int                 `json:"vsId"`
	Algorithm   string              `json:"algorithm"`
	SubmittedBy string              `json:"submittedBy,omitempty"`
	Summary     *vectorset.Summary  `json:"summary"`
	Response    *vectorset.Response `json:"response"`
}

// Info is a report without its per-test results
type Info struct {
	ID          string             `json:"id"`
	CreatedAt   time.Time          `json:"createdAt"`
	VectorSetID int                `json:"vsId"`
	Algorithm   string             `json:"algorithm"`
	SubmittedBy string             `json:"submittedBy,omitempty"`
	Summary     *vectorset.Summary `json:"summary"`
}

// NewReport wraps a runner result in an unsaved report
func NewReport(resp *vectorset.Response, summary *vectorset.Summary) *Report {
	r := &Report{Summary: summary, Response: resp}
	if resp != nil {
		r.VectorSetID = resp.ID
		r.Algorithm = resp.Algorithm
	}
	return r
}

// Info returns the report header
func (r *Report) Info() Info {
	return Info{
		ID:          r.ID,
		CreatedAt:   r.CreatedAt,
		VectorSetID: r.VectorSetID,
		Algorithm:   r.Algorithm,
		SubmittedBy: r.SubmittedBy,
		Summary:     r.Summary,
	}
}

// Store manages run reports
type Store struct {
	backend storage.Backend
	now     func() time.Time
}

// NewStore creates a result store on top of backend
func NewStore(backend storage.Backend) *Store {
	return &Store{
		backend: backend,
		now:     time.Now,
	}
}

// Save assigns an id and creation time when missing and stores the report
func (s *Store) Save(ctx context.Context, report *Report) error {
	if report == nil {
		return fmt.Errorf("report is required")
	}

	if report.ID == "" {
		report.ID = uuid.NewString()
	} else if _, err := uuid.Parse(report.ID); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidID, report.ID)
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = s.now().UTC()
	}

	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	if err := s.backend.Put(ctx, runKey(report.ID), data); err != nil {
		return fmt.Errorf("failed to save report %s: %w", report.ID, err)
	}
	return nil
}

// Get loads the report with the given id
func (s *Store) Get(ctx context.Context, id string) (*Report, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}

	data, err := s.backend.Get(ctx, runKey(id))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	return &report, nil
}

// List returns the headers of all stored reports, newest first
func (s *Store) List(ctx context.Context) ([]Info, error) {
	keys, err := s.backend.List(ctx, runPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}

	infos := make([]Info, 0, len(keys))
	for _, key := range keys {
		report, err := s.Get(ctx, strings.TrimPrefix(key, runPrefix))
		if err != nil {
			// Deleted between List and Get
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		infos = append(infos, report.Info())
	}

	sort.SliceStable(infos, func(i, j int) bool {
		return infos[i].CreatedAt.After(infos[j].CreatedAt)
	})
	return infos, nil
}

// Delete removes a report
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}

	if err := s.backend.Delete(ctx, runKey(id)); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return fmt.Errorf("failed to delete report: %w", err)
	}
	return nil
}

func runKey(id string) string {
	return runPrefix + id
}
