package config

import (
	"fmt"
	"net/url"
)

// Storage backends.
const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendFile     = "file"
	BackendDynamoDB = "dynamodb"
)

type StorageConfig struct {
	Backend    string         `yaml:"backend"`
	Database   DatabaseConfig `yaml:"database"`
	SQLitePath string         `yaml:"sqlite_path"`
	FilePath   string         `yaml:"file_path"`
	DynamoDB   DynamoDBConfig `yaml:"dynamodb"`
}

// DatabaseConfig define the configs needed to connect to the DB
type DatabaseConfig struct {
	// URL, when set, is used verbatim and the discrete fields are ignored.
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"ssl_mode"`
}

// DSN returns a lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   "/" + d.DBName,
	}
	if d.User != "" {
		u.User = url.UserPassword(d.User, d.Password)
	}
	if d.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {d.SSLMode}}.Encode()
	}
	return u.String()
}

type DynamoDBConfig struct {
	Table  string `yaml:"table"`
	Region string `yaml:"region"`
	// Endpoint points the client at DynamoDB Local or another compatible service.
	Endpoint string `yaml:"endpoint"`
}
