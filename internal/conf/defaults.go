// defaults.go: default values for the configuration parameters.
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaultConfig sets the default values for each configuration parameter.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	// Main settings
	viper.SetDefault("main.name", "WildScan")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "wildscan.log")

	// Database settings
	viper.SetDefault("database.sqlite.enabled", true)
	viper.SetDefault("database.sqlite.path", "wildscan.db")
	viper.SetDefault("database.mysql.enabled", false)
	viper.SetDefault("database.mysql.username", "wildscan")
	viper.SetDefault("database.mysql.password", "secret")
	viper.SetDefault("database.mysql.database", "wildscan")
	viper.SetDefault("database.mysql.host", "localhost")
	viper.SetDefault("database.mysql.port", "3306")

	// Model provider settings
	viper.SetDefault("provider.apikey", "")
	viper.SetDefault("provider.model", "gemini-2.0-flash")
	viper.SetDefault("provider.endpoint", "https://generativelanguage.googleapis.com/v1beta")
	viper.SetDefault("provider.timeout", 45*time.Second)
	viper.SetDefault("provider.classifycachettl", 12*time.Hour)

	// Blob storage settings
	viper.SetDefault("storage.gcs.enabled", false)
	viper.SetDefault("storage.gcs.bucket", "")
	viper.SetDefault("storage.gcs.credentialspath", "")
	viper.SetDefault("storage.gcs.basepath", "scanned-species")

	// Scanner settings
	viper.SetDefault("scanner.maxfilesize", int64(10*1024*1024))
	viper.SetDefault("scanner.defaultlocation.label", "Kuala Lumpur, Wilayah Persekutuan, Malaysia")
	viper.SetDefault("scanner.defaultlocation.city", "Kuala Lumpur")
	viper.SetDefault("scanner.defaultlocation.country", "Malaysia")
	viper.SetDefault("scanner.defaultlocation.region", "Wilayah Persekutuan")
	viper.SetDefault("scanner.defaultlocation.latitude", 3.1390)
	viper.SetDefault("scanner.defaultlocation.longitude", 101.6869)

	// MQTT discovery notifications
	viper.SetDefault("mqtt.enabled", false)
	viper.SetDefault("mqtt.broker", "tcp://localhost:1883")
	viper.SetDefault("mqtt.topic", "wildscan/discoveries")
	viper.SetDefault("mqtt.username", "")
	viper.SetDefault("mqtt.password", "")

	// HTTP server settings
	viper.SetDefault("http.host", "0.0.0.0")
	viper.SetDefault("http.port", "8080")
}
