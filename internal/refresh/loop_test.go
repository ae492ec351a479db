package refresh

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/forecast-display/internal/render"
	"github.com/i474232898/forecast-display/internal/weather"
)

type scriptedProvider struct {
	results []result
	calls   int
}

type result struct {
	sample weather.Sample
	err    error
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) FetchForecast(context.Context) (weather.Sample, error) {
	r := p.results[min(p.calls, len(p.results)-1)]
	p.calls++
	return r.sample, r.err
}

type countingRenderer struct {
	frames []render.Frame
	err    error
}

func (r *countingRenderer) Render(f render.Frame) error {
	if r.err != nil {
		return r.err
	}
	r.frames = append(r.frames, f)
	return nil
}

type memRecorder struct {
	frames []render.Frame
}

func (m *memRecorder) Record(f render.Frame, _ time.Time) { m.frames = append(m.frames, f) }

var t0 = time.Date(2024, 5, 1, 5, 3, 0, 0, time.UTC)

func cfg() Config {
	return Config{RefreshInterval: 15 * time.Minute, UTCOffset: 9 * time.Hour}
}

func ok(cond, pop, ts string) result {
	return result{sample: weather.Sample{Condition: cond, Precipitation: pop, Timestamp: ts}}
}

func TestTickFirstFetchAndRender(t *testing.T) {
	p := &scriptedProvider{results: []result{ok("晴れ", "20", "2024-05-01T09:15:00+09:00")}}
	r := &countingRenderer{}
	rec := &memRecorder{}
	l := New(p, r, rec, cfg())

	st := l.Tick(context.Background(), NewState(), t0)

	assert.Equal(t, 1, p.calls)
	require.Len(t, r.frames, 1)
	assert.Equal(t, render.Frame{Previous: "--", Current: "晴れ", Precipitation: "20", Timestamp: "09:15"}, r.frames[0])
	assert.Equal(t, r.frames, rec.frames)
	assert.Equal(t, t0, st.LastFetch)
	assert.True(t, st.Rendered)
}

func TestTickSuppressesUnchangedFrames(t *testing.T) {
	p := &scriptedProvider{results: []result{ok("くもり", "30", "2024-05-01T09:15:00+09:00")}}
	r := &countingRenderer{}
	l := New(p, r, nil, cfg())

	st := NewState()
	for i := 0; i < 10; i++ {
		st = l.Tick(context.Background(), st, t0.Add(time.Duration(i)*time.Second))
	}

	assert.Equal(t, 1, p.calls, "no refetch inside the interval")
	assert.Len(t, r.frames, 1)
}

func TestTickIdenticalRefetchDrawsOnce(t *testing.T) {
	same := ok("くもり", "30", "2024-05-01T09:15:00+09:00")
	p := &scriptedProvider{results: []result{same, same}}
	r := &countingRenderer{}
	l := New(p, r, nil, Config{RefreshInterval: time.Second, UTCOffset: 9 * time.Hour})

	st := l.Tick(context.Background(), NewState(), t0)
	st = l.Tick(context.Background(), st, t0.Add(2*time.Second))

	assert.Equal(t, 2, p.calls)
	require.Len(t, r.frames, 1)
	assert.Equal(t, "--", st.Previous.Condition)
	assert.Equal(t, "くもり", st.Current.Condition)
}

func TestTickNewReportWithSameConditionShifts(t *testing.T) {
	p := &scriptedProvider{results: []result{
		ok("くもり", "30", "2024-05-01T05:00:00+09:00"),
		ok("くもり", "30", "2024-05-01T11:00:00+09:00"),
	}}
	r := &countingRenderer{}
	l := New(p, r, nil, Config{RefreshInterval: time.Second, UTCOffset: 9 * time.Hour})

	st := l.Tick(context.Background(), NewState(), t0)
	st = l.Tick(context.Background(), st, t0.Add(2*time.Second))

	require.Len(t, r.frames, 2)
	assert.Equal(t, render.Frame{Previous: "くもり", Current: "くもり", Precipitation: "30", Timestamp: "11:00"}, r.frames[1])
	assert.Equal(t, "くもり", st.Previous.Condition)
}

func TestTickRefetchesAfterInterval(t *testing.T) {
	p := &scriptedProvider{results: []result{ok("晴れ", "10", ""), ok("雨", "80", "")}}
	r := &countingRenderer{}
	l := New(p, r, nil, cfg())

	st := l.Tick(context.Background(), NewState(), t0)
	st = l.Tick(context.Background(), st, t0.Add(15*time.Minute))
	assert.Equal(t, 1, p.calls, "elapsed equal to the interval does not refetch")

	st = l.Tick(context.Background(), st, t0.Add(15*time.Minute+time.Second))
	assert.Equal(t, 2, p.calls)
	assert.Equal(t, "晴れ", st.Previous.Condition)
	assert.Equal(t, "雨", st.Current.Condition)
	require.Len(t, r.frames, 2)
	assert.Equal(t, render.Frame{Previous: "晴れ", Current: "雨", Precipitation: "80", Timestamp: "14:18"}, r.frames[1])
}

func TestTickHTTPErrorUsesDerivedTimestamp(t *testing.T) {
	p := &scriptedProvider{results: []result{{err: fmt.Errorf("jma: %w: 404", weather.ErrHTTPStatus)}}}
	r := &countingRenderer{}
	l := New(p, r, nil, cfg())

	st := l.Tick(context.Background(), NewState(), t0)

	assert.Equal(t, weather.Sample{Condition: "HTTP error", Precipitation: "?"}, st.Current)
	assert.Equal(t, weather.Sentinel(), st.Previous)
	assert.Equal(t, "14:03", st.Timestamp)
	require.Len(t, r.frames, 1)
	assert.Equal(t, render.Frame{Previous: "--", Current: "HTTP error", Precipitation: "?", Timestamp: "14:03"}, r.frames[0])
}

func TestTickFailureKeepsPreviousAndRetries(t *testing.T) {
	p := &scriptedProvider{results: []result{
		ok("晴れ", "10", ""),
		{err: errors.New("dial tcp: i/o timeout")},
		ok("雨", "70", ""),
	}}
	r := &countingRenderer{}
	l := New(p, r, nil, cfg())

	st := l.Tick(context.Background(), NewState(), t0)
	st = l.Tick(context.Background(), st, t0.Add(16*time.Minute))
	assert.Equal(t, "Fetch error", st.Current.Condition)
	assert.Equal(t, "晴れ", st.Previous.Condition)

	// A failure sample is a placeholder: the very next tick fetches again.
	st = l.Tick(context.Background(), st, t0.Add(16*time.Minute+time.Second))
	assert.Equal(t, 3, p.calls)
	assert.Equal(t, "晴れ", st.Previous.Condition, "failure sample is not shifted into previous")
	assert.Equal(t, "雨", st.Current.Condition)
}

func TestTickThrottledLeavesStateUntouched(t *testing.T) {
	p := &scriptedProvider{results: []result{
		{err: fmt.Errorf("jma: %w", weather.ErrThrottled)},
		ok("晴れ", "10", "2024-05-01 09:15"),
	}}
	r := &countingRenderer{}
	l := New(p, r, nil, cfg())

	st := l.Tick(context.Background(), NewState(), t0)
	assert.True(t, st.LastFetch.IsZero())
	assert.Equal(t, weather.Sentinel(), st.Current)
	require.Len(t, r.frames, 1)
	assert.Equal(t, render.Frame{Previous: "--", Current: "--", Precipitation: "--", Timestamp: "--:--"}, r.frames[0])

	st = l.Tick(context.Background(), st, t0.Add(time.Second))
	assert.Equal(t, 2, p.calls)
	assert.Equal(t, "晴れ", st.Current.Condition)
	assert.Len(t, r.frames, 2)
}

func TestTickRenderErrorRetriesNextTick(t *testing.T) {
	p := &scriptedProvider{results: []result{ok("晴れ", "10", "")}}
	r := &countingRenderer{err: errors.New("spi: busy")}
	l := New(p, r, nil, cfg())

	st := l.Tick(context.Background(), NewState(), t0)
	assert.False(t, st.Rendered)

	r.err = nil
	st = l.Tick(context.Background(), st, t0.Add(time.Second))
	assert.True(t, st.Rendered)
	assert.Len(t, r.frames, 1)
	assert.Equal(t, 1, p.calls)
}

func TestFrameDefaults(t *testing.T) {
	st := State{}
	assert.Equal(t, render.Frame{Previous: "--", Current: "--", Precipitation: "?", Timestamp: "--:--"}, st.Frame())
}

func TestDisplayTimestamp(t *testing.T) {
	assert.Equal(t, "09:15", DisplayTimestamp("2024-05-01T09:15:00+09:00", t0, 9*time.Hour))
	assert.Equal(t, "09:15", DisplayTimestamp("2024-05-01 09:15", t0, 9*time.Hour))
	assert.Equal(t, "14:03", DisplayTimestamp("", t0, 9*time.Hour))
	assert.Equal(t, "14:03", DisplayTimestamp("09:15", t0, 9*time.Hour))
	assert.Equal(t, "00:05", DisplayTimestamp("", time.Date(2024, 5, 1, 15, 5, 0, 0, time.UTC), 9*time.Hour))
	assert.Equal(t, "05:03", DisplayTimestamp("", t0.In(time.FixedZone("JST", 9*3600)), 0))
	// Long strings without a clock at the fixed offset fall back to now.
	assert.Equal(t, "14:03", DisplayTimestamp("2024年5月1日 9時15分", t0, 9*time.Hour))
	assert.Equal(t, "14:03", DisplayTimestamp("Wed, 01 May 2024 09:15", t0, 9*time.Hour))
}

func TestNeedsFetch(t *testing.T) {
	st := NewState()
	assert.True(t, NeedsFetch(st, t0, time.Minute))

	st.Current = weather.Sample{Condition: "晴れ"}
	st.LastFetch = t0
	assert.False(t, NeedsFetch(st, t0.Add(time.Minute), time.Minute))
	assert.True(t, NeedsFetch(st, t0.Add(time.Minute+time.Nanosecond), time.Minute))
}
