package zrdb

import (
	"fmt"
	"time"

	"github.com/apex/log"
	"github.com/openresearchdata/zenodo-relay/pkg/config"
	"github.com/openresearchdata/zenodo-relay/pkg/zrdb/zrmodel"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SqliteInMemoryDSN is the DSN tests use to get a private in-memory database.
const SqliteInMemoryDSN = "file::memory:?cache=shared"

func MakeDSN(c config.Configer) string {
	if dsn := c.GetKey("ZR_DSN"); dsn != "" {
		return dsn
	}

	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.MustGetKey("DB_USERNAME"),
		c.MustGetKey("DB_PASSWORD"),
		c.MustGetKey("DB_HOST"),
		c.GetKeyWithDefault("DB_PORT", "3306"),
		c.MustGetKey("DB_DATABASE"))
}

const maxDBRetries = 5

// MustConnectToDB will attempt to connect to the database maxDBRetries times. If it isn't successful
// after that number of retries then it will call log.Fatalf(), which will cause the daemon to exit.
// Between retry attempts it will sleep for 3 seconds.
func MustConnectToDB(dsn string) *gorm.DB {
	var (
		err error
		db  *gorm.DB
	)

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	retryCount := 1
	for {
		db, err = gorm.Open(mysql.Open(dsn), gormConfig)
		switch {
		case err == nil:
			// Connected to db, yay!
			return db
		case retryCount >= maxDBRetries:
			// Retry limit exceeded :-(
			log.Fatalf("Failed to open db (%s): %s", dsn, err)
		default:
			// Couldn't connect, so increment count, then wait a bit before trying again.
			retryCount++
			time.Sleep(3 * time.Second)
		}
	}
}

// RunMigrations creates the zenodo_transfers table. Production schemas are managed
// externally; this exists for the sqlite databases the tests run against.
func RunMigrations(db *gorm.DB) error {
	return db.AutoMigrate(&zrmodel.Transfer{})
}
