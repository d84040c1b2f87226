// Copyright (c) 2026 Recordkit Team
// Recordkit - generic record services on top of Bun
// This source code is licensed under the MIT license found in the LICENSE file.

package slicest

import (
	"errors"
	"strconv"
	"testing"
)

func TestToMap(t *testing.T) {
	m := ToMap([]string{"a", "bb", "ccc"}, func(s string) (string, int) {
		return s, len(s)
	})
	if len(m) != 3 || m["bb"] != 2 {
		t.Errorf("unexpected map: %v", m)
	}
}

func TestMap(t *testing.T) {
	got := Map([]int{1, 2, 3}, strconv.Itoa)
	if len(got) != 3 || got[0] != "1" || got[2] != "3" {
		t.Errorf("unexpected result: %v", got)
	}
}

func TestMapXStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	_, err := MapX([]int{1, 2, 3}, func(v int) (int, error) {
		calls++
		if v == 2 {
			return 0, boom
		}
		return v * 10, nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected the callback error, got: %v", err)
	}
	if calls != 2 {
		t.Errorf("must stop on the first failure, made %d calls", calls)
	}
}

func TestMapXI(t *testing.T) {
	got, err := MapXI([]string{"a", "b"}, func(i int, s string) (string, error) {
		return strconv.Itoa(i) + s, nil
	})
	if err != nil {
		t.Fatalf("MapXI failed: %v", err)
	}
	if got[0] != "0a" || got[1] != "1b" {
		t.Errorf("unexpected result: %v", got)
	}
}

func TestFilter(t *testing.T) {
	got := Filter([]int{1, 2, 3, 4}, func(v int) bool { return v%2 == 0 })
	if len(got) != 2 || got[0] != 2 || got[1] != 4 {
		t.Errorf("unexpected result: %v", got)
	}
}
