package service

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/fastclub/internal/metrics"
	"github.com/Kerhoff/fastclub/internal/models"
	"github.com/Kerhoff/fastclub/internal/repository"
	"github.com/Kerhoff/fastclub/internal/repository/memory"
)

func newTestService(t *testing.T, now time.Time) *Service {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	reg := prometheus.NewRegistry()
	st := memory.New()
	return New(nil, logger, metrics.NewWithRegistry(reg, reg),
		Options{Clock: func() time.Time { return now }},
		st.Clubs(), st.Members(), st.MeetingRules(), st.FeeTypes(), st.Fees(), st.Calendar())
}

// storedFees returns every obligation of the club as stored.
func storedFees(t *testing.T, svc *Service, clubID int64) []*models.FeeObligation {
	t.Helper()
	obs, err := svc.Fees.GetByClubID(context.Background(), clubID, repository.FeeFilters{})
	require.NoError(t, err)
	return obs
}

// failingFees rejects every batch insert.
type failingFees struct {
	repository.FeeRepository
	err error
}

func (f failingFees) CreateBatch(context.Context, []*models.FeeObligation) error {
	return f.err
}
