package zrdb

import (
	"testing"

	"github.com/openresearchdata/zenodo-relay/pkg/config"
	"github.com/stretchr/testify/assert"
)

func TestMakeDSNPrefersExplicitDSN(t *testing.T) {
	c := config.NewMapConfig(map[string]string{
		"ZR_DSN": "zr:zrpw@tcp(127.0.0.1:3306)/zr?parseTime=True",
	})

	assert.Equal(t, "zr:zrpw@tcp(127.0.0.1:3306)/zr?parseTime=True", MakeDSN(c))
}

func TestMakeDSNFromParts(t *testing.T) {
	c := config.NewMapConfig(map[string]string{
		"DB_USERNAME": "zr",
		"DB_PASSWORD": "zrpw",
		"DB_HOST":     "db.internal",
		"DB_DATABASE": "zenodo_relay",
	})

	dsn := MakeDSN(c)
	assert.Equal(t, "zr:zrpw@tcp(db.internal:3306)/zenodo_relay?charset=utf8mb4&parseTime=True&loc=Local", dsn)
}
