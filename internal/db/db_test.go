package db

import (
	"testing"

	"github.com/campustrade/backend/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestBuildDSN(t *testing.T) {
	base := config.Config{
		DBUser:     "app",
		DBPassword: "secret",
		DBName:     "campustrade",
		DBPort:     "3306",
	}

	cases := []struct {
		name string
		host string
		want string
	}{
		{"bare host", "db.internal", "app:secret@tcp(db.internal:3306)/campustrade?charset=utf8mb4&parseTime=True&loc=Local"},
		{"wrapped tcp", "tcp(db.internal:3307)", "app:secret@tcp(db.internal:3307)/campustrade?charset=utf8mb4&parseTime=True&loc=Local"},
		{"unix socket path", "/var/run/mysqld/mysqld.sock", "app:secret@unix(/var/run/mysqld/mysqld.sock)/campustrade?charset=utf8mb4&parseTime=True&loc=Local"},
		{"wrapped unix", "unix(/tmp/mysql.sock)", "app:secret@unix(/tmp/mysql.sock)/campustrade?charset=utf8mb4&parseTime=True&loc=Local"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			cfg.DBHost = tc.host
			assert.Equal(t, tc.want, BuildDSN(&cfg))
		})
	}
}
