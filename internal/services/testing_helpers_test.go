package services

import (
	"context"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/irfndi/powerlaw-overtake/internal/config"
	"github.com/irfndi/powerlaw-overtake/internal/datasource"
	"github.com/irfndi/powerlaw-overtake/internal/metrics"
	"github.com/irfndi/powerlaw-overtake/internal/models"
	"github.com/sirupsen/logrus"
)

var testNow = time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC)

var testFiles = config.DataConfig{
	PricesHistorical:   "kaspa_prices_%s_historical.csv",
	PricesLive:         "kaspa_prices_%s_api.csv",
	HashrateHistorical: "%s_hashrate_historical.csv",
	HashrateLive:       "%s_hashrate_api.csv",
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// powerCSV renders value = scale*(day/100)^exp for day in [from, to] every step days.
func powerCSV(genesis time.Time, from, to, step int, scale, exp float64) string {
	var b strings.Builder
	b.WriteString("Start,Open\n")
	for d := from; d <= to; d += step {
		date := genesis.AddDate(0, 0, d).Format("2006-01-02")
		v := scale * math.Pow(float64(d)/100, exp)
		b.WriteString(date + "," + strconv.FormatFloat(v, 'g', -1, 64) + "\n")
	}
	return b.String()
}

type fakeSource struct {
	mu    sync.Mutex
	files map[string]string
	calls map[string]int
	err   error
}

func newFakeSource(files map[string]string) *fakeSource {
	return &fakeSource{files: files, calls: make(map[string]int)}
}

func (f *fakeSource) Rows(ctx context.Context, name string) ([]models.RawRow, error) {
	f.mu.Lock()
	f.calls[name]++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	content, ok := f.files[name]
	if !ok {
		return nil, errors.New("no such file: " + name)
	}
	return datasource.ParseCSV(strings.NewReader(content))
}

func newTestService(src datasource.Source, m *metrics.Metrics) *OvertakeService {
	svc := NewOvertakeService(src, DefaultAssets(), OvertakeConfig{HorizonYears: 12, Files: testFiles}, quietLogger(), m, nil)
	svc.now = func() time.Time { return testNow }
	svc.newID = func() uuid.UUID { return uuid.MustParse("00000000-0000-0000-0000-000000000001") }
	return svc
}
