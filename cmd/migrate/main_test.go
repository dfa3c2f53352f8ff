package main

import (
	"testing"

	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/wolfman30/postop-assistant/migrations"
)

func TestEmbeddedMigrationsAreOrdered(t *testing.T) {
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		t.Fatalf("source driver: %v", err)
	}
	defer src.Close()

	first, err := src.First()
	if err != nil {
		t.Fatalf("first migration: %v", err)
	}
	if first != 1 {
		t.Fatalf("expected first version 1, got %d", first)
	}
	next, err := src.Next(first)
	if err != nil || next != 2 {
		t.Fatalf("expected next version 2, got %d (%v)", next, err)
	}
}

func TestIntArg(t *testing.T) {
	if n, err := intArg([]string{"down"}, 1); err != nil || n != 1 {
		t.Fatalf("expected default 1, got %d (%v)", n, err)
	}
	if _, err := intArg([]string{"force"}, 0); err == nil {
		t.Fatalf("expected error when force has no version")
	}
	if n, err := intArg([]string{"force", "3"}, 0); err != nil || n != 3 {
		t.Fatalf("expected 3, got %d (%v)", n, err)
	}
	if _, err := intArg([]string{"down", "x"}, 1); err == nil {
		t.Fatalf("expected error for non-numeric argument")
	}
}
