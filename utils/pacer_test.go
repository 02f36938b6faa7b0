package utils

import (
	"testing"
	"time"
)

func TestPacerFirstWaitIsImmediate(t *testing.T) {
	p := NewPacer()

	start := time.Now()
	p.Wait(200 * time.Millisecond)
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("first Wait took %v; expected no delay", elapsed)
	}
}

func TestPacerEnforcesInterval(t *testing.T) {
	p := NewPacer()
	interval := 100 * time.Millisecond

	p.Wait(interval)
	start := time.Now()
	p.Wait(interval)

	if elapsed := time.Since(start); elapsed < interval-10*time.Millisecond {
		t.Errorf("second Wait returned after %v; want at least %v", elapsed, interval)
	}
}

func TestURLSetAdd(t *testing.T) {
	s := NewURLSet()

	if !s.Add("https://example.com/a") {
		t.Error("first Add should return true")
	}
	if s.Add("https://example.com/a") {
		t.Error("second Add of same URL should return false")
	}
	if !s.Contains("https://example.com/a") {
		t.Error("Contains should report added URL")
	}
	if s.Size() != 1 {
		t.Errorf("Size = %d; want 1", s.Size())
	}
}
