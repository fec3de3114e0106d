package db

import (
	"strings"
	"testing"

	"github.com/silverland/nova/internal/config"
)

func TestDSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.DatabaseConfig
		want string
	}{
		{
			name: "no password",
			cfg:  config.DatabaseConfig{Host: "127.0.0.1", Port: 3306, User: "root", Database: "nova"},
			want: "root@tcp(127.0.0.1:3306)/nova?parseTime=true&charset=utf8mb4",
		},
		{
			name: "with password",
			cfg:  config.DatabaseConfig{Host: "db.internal", Port: 3307, User: "nova", Password: "secret", Database: "nova_prod"},
			want: "nova:secret@tcp(db.internal:3307)/nova_prod?parseTime=true&charset=utf8mb4",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DSN(tt.cfg); got != tt.want {
				t.Errorf("DSN() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDSN_ParseTimeFlag(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "localhost", Port: 3306, User: "root", Database: "x"})
	if !strings.Contains(dsn, "parseTime=true") {
		t.Errorf("DSN missing parseTime=true: %s", dsn)
	}
}

func TestAllModels_Count(t *testing.T) {
	models := AllModels()
	if len(models) != 5 {
		t.Errorf("AllModels() returned %d models, want 5", len(models))
	}
}
