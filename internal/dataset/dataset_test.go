package dataset

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diabetes-risk/internal/loadonce"
)

const sampleCSV = `Diabetes_012,HighBP,BMI,Age,Smoker,Note
0,1,31.5,9,0,ok
2,1,27,11,1,
1,0,22.3,4,1,ok
0,0,,2,0,ok
`

func TestParse_CommaDataset(t *testing.T) {
	d, err := Parse([]byte(sampleCSV))
	require.NoError(t, err)

	assert.Equal(t, []string{"Diabetes_012", "HighBP", "BMI", "Age", "Smoker", "Note"}, d.Columns)
	assert.Equal(t, "Diabetes_012", d.TargetColumn)
	assert.Equal(t, []string{"HighBP", "BMI", "Age", "Smoker", "Note"}, d.FeatureColumns)
	require.Len(t, d.Rows, 4)

	assert.Equal(t, 31.5, d.Rows[0]["BMI"])
	assert.Equal(t, "ok", d.Rows[0]["Note"])
	assert.Equal(t, "", d.Rows[1]["Note"])
	assert.Equal(t, "", d.Rows[3]["BMI"])

	m := d.Metadata
	assert.Equal(t, 4, m.TotalRecords)
	assert.Equal(t, 5, m.Features)
	assert.Equal(t, "Diabetes_012", m.TargetVariable)
	assert.Equal(t, ClassDistribution{Negative: 2, Positive: 2}, m.ClassDistribution)
	assert.Equal(t, 2, m.MissingValues)
	assert.Equal(t, 4, m.FeatureTypes.Numeric, "Note is not numeric")
}

func TestParse_InfersDelimiters(t *testing.T) {
	tests := []struct {
		name  string
		input string
		delim rune
	}{
		{"tab", "Age\tDiabetes_binary\n1\t0\n2\t1\n", '\t'},
		{"semicolon", "Age;Diabetes_binary\n1;0\n2;1\n", ';'},
		{"pipe", "Age|Diabetes_binary\n1|0\n2|1\n", '|'},
		{"comma", "Age,Diabetes_binary\n1,0\n2,1\n", ','},
		{"semicolon with decimal commas", "BMI;Diabetes_binary\n1,5;0\n2,5;1\n", ';'},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.delim, InferDelimiter([]byte(tt.input)))

			d, err := Parse([]byte(tt.input))
			require.NoError(t, err)
			assert.Len(t, d.Columns, 2)
			assert.Equal(t, "Diabetes_binary", d.TargetColumn)
		})
	}
}

func TestParse_ShortRowsYieldNil(t *testing.T) {
	d, err := Parse([]byte("A,B,Diabetes\n1,2,0\n3\n"))
	require.NoError(t, err)
	require.Len(t, d.Rows, 2)

	assert.Equal(t, 3.0, d.Rows[1]["A"])
	v, present := d.Rows[1]["B"]
	assert.True(t, present)
	assert.Nil(t, v)
	assert.Equal(t, 2, d.Metadata.MissingValues)
}

func TestParse_TrimsHeaderAndBOM(t *testing.T) {
	d, err := Parse([]byte("\xef\xbb\xbf Age , BMI \n1,20\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Age", "BMI"}, d.Columns)
	assert.Equal(t, DefaultTargetColumn, d.TargetColumn)
	assert.Equal(t, []string{"Age", "BMI"}, d.FeatureColumns)
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte(""))
	assert.Error(t, err)

	_, err = Parse([]byte("Age,Diabetes\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("Age,BMI, Age ,Diabetes\n1,20,,0\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate column "Age" at positions 1 and 3`)
}

func TestCache_DuplicateHeaderFailsLoad(t *testing.T) {
	c := NewCache(&stubFetcher{data: "BMI,BMI,Diabetes_012\n20,,0\n"}, "survey.csv")
	err := c.Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDatasetLoad)
	assert.Equal(t, loadonce.Failed, c.State())
}

func TestClassifyOutcome(t *testing.T) {
	tests := []struct {
		in   any
		want Outcome
	}{
		{0.0, OutcomeNegative},
		{"0", OutcomeNegative},
		{0, OutcomeNegative},
		{1.0, OutcomePositive},
		{2.0, OutcomePositive},
		{"1", OutcomePositive},
		{"2", OutcomePositive},
		{3.0, OutcomeUnknown},
		{"yes", OutcomeUnknown},
		{"", OutcomeUnknown},
		{nil, OutcomeUnknown},
		{true, OutcomeUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyOutcome(tt.in), "%#v", tt.in)
	}
}

func TestNumber(t *testing.T) {
	v, ok := Number(" 31.5 ")
	assert.True(t, ok)
	assert.Equal(t, 31.5, v)

	v, ok = Number(7)
	assert.True(t, ok)
	assert.Equal(t, 7.0, v)

	for _, bad := range []any{"", "abc", nil, "NaN", true} {
		_, ok := Number(bad)
		assert.False(t, ok, "%#v", bad)
	}
}

type stubFetcher struct {
	mu    sync.Mutex
	data  string
	err   error
	calls int
	gate  chan struct{}
}

func (s *stubFetcher) Fetch(ctx context.Context, _ string) ([]byte, error) {
	s.mu.Lock()
	s.calls++
	gate, data, err := s.gate, s.data, s.err
	s.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return []byte(data), nil
}

func (s *stubFetcher) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type countingMetrics struct {
	mu       sync.Mutex
	loads    int
	failures int
	rows     float64
}

func (m *countingMetrics) DatasetLoadsInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
}

func (m *countingMetrics) DatasetLoadFailuresInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures++
}

func (m *countingMetrics) DatasetLoadDurationObserve(float64) {}

func (m *countingMetrics) DatasetRowsSet(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = v
}

func TestCache_NotLoaded(t *testing.T) {
	c := NewCache(&stubFetcher{data: sampleCSV}, "data.csv")

	_, err := c.Dataset()
	assert.ErrorIs(t, err, ErrDataNotLoaded)
	_, err = c.Rows()
	assert.ErrorIs(t, err, ErrDataNotLoaded)
	_, err = c.Metadata()
	assert.ErrorIs(t, err, ErrDataNotLoaded)
	assert.Equal(t, loadonce.NotLoaded, c.State())
}

func TestCache_LoadIsIdempotent(t *testing.T) {
	f := &stubFetcher{data: sampleCSV}
	metrics := &countingMetrics{}
	c := NewCacheWithMetrics(f, "data.csv", metrics)

	require.NoError(t, c.Load(context.Background()))
	require.NoError(t, c.Load(context.Background()))
	assert.Equal(t, 1, f.count())

	rows, err := c.Rows()
	require.NoError(t, err)
	assert.Len(t, rows, 4)

	m, err := c.Metadata()
	require.NoError(t, err)
	assert.Equal(t, 4, m.TotalRecords)
	assert.Equal(t, 1, metrics.loads)
	assert.Equal(t, 4.0, metrics.rows)
}

func TestCache_ConcurrentLoadsShareOneFetch(t *testing.T) {
	f := &stubFetcher{data: sampleCSV, gate: make(chan struct{})}
	c := NewCache(f, "data.csv")

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- c.Load(context.Background())
		}()
	}

	require.Eventually(t, func() bool { return c.State() == loadonce.Loading }, time.Second, time.Millisecond)
	close(f.gate)
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 1, f.count())
}

func TestCache_FailureThenRetry(t *testing.T) {
	f := &stubFetcher{err: errors.New("404 not found")}
	metrics := &countingMetrics{}
	c := NewCacheWithMetrics(f, "data.csv", metrics)

	err := c.Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDatasetLoad)
	assert.Equal(t, loadonce.Failed, c.State())
	assert.ErrorIs(t, c.LastError(), ErrDatasetLoad)

	_, err = c.Dataset()
	assert.ErrorIs(t, err, ErrDataNotLoaded)

	f.mu.Lock()
	f.err = nil
	f.data = sampleCSV
	f.mu.Unlock()

	require.NoError(t, c.Load(context.Background()))
	assert.Equal(t, 2, f.count())
	assert.Equal(t, 1, metrics.failures)
	assert.Equal(t, 1, metrics.loads)
}

func TestCache_HeaderOnlyFailsLoad(t *testing.T) {
	c := NewCache(&stubFetcher{data: "Age,Diabetes_012\n"}, "data.csv")
	err := c.Load(context.Background())
	assert.ErrorIs(t, err, ErrDatasetLoad)
}
