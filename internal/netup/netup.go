// Package netup blocks start-up until the forecast host is reachable and
// corrects the process clock against an NTP server.
package netup

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"time"

	"github.com/beevik/ntp"
)

// ErrTimeSync is returned when the NTP query fails or its answer is unusable.
var ErrTimeSync = errors.New("time sync failed")

// WaitOnline dials hostport every interval until a TCP connection succeeds
// or ctx is done. There is no attempt limit.
func WaitOnline(ctx context.Context, hostport string, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Second
	}
	var d net.Dialer
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for attempt := 1; ; attempt++ {
		dctx, cancel := context.WithTimeout(ctx, interval)
		conn, err := d.DialContext(dctx, "tcp", hostport)
		cancel()
		if err == nil {
			_ = conn.Close()
			log.Printf("INFO: netup: %s reachable after %d attempt(s)", hostport, attempt)
			return nil
		}
		if attempt == 1 {
			log.Printf("INFO: netup: waiting for %s: %v", hostport, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Clock is the system clock shifted by a fixed offset.
type Clock struct {
	offset time.Duration
}

// Now returns the corrected current time.
func (c Clock) Now() time.Time {
	return time.Now().Add(c.offset)
}

// Offset returns the correction applied to the system clock.
func (c Clock) Offset() time.Duration {
	return c.offset
}

// queryOffset is replaced in tests.
var queryOffset = func(server string, timeout time.Duration) (time.Duration, error) {
	resp, err := ntp.QueryWithOptions(server, ntp.QueryOptions{Timeout: timeout})
	if err != nil {
		return 0, err
	}
	if err := resp.Validate(); err != nil {
		return 0, err
	}
	return resp.ClockOffset, nil
}

// SyncClock queries server once. On failure the returned Clock is the plain
// system clock, so callers may log the error and carry on with it.
func SyncClock(server string, timeout time.Duration) (Clock, error) {
	if server == "" {
		return Clock{}, nil
	}
	offset, err := queryOffset(server, timeout)
	if err != nil {
		return Clock{}, fmt.Errorf("%w: %s: %v", ErrTimeSync, server, err)
	}
	log.Printf("INFO: netup: clock offset %s from %s", offset, server)
	return Clock{offset: offset}, nil
}
