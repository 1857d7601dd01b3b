// Package config provides configuration loading for metalens.
//
// Configuration is read from a YAML file (metalens.yaml by default) and
// then overlaid with METALENS_* environment variables. The first
// underscore after the prefix separates the section from the key:
//
//	METALENS_SERVER_ADDRESS=:9090      -> server.address
//	METALENS_ANALYZER_TIMEOUT=15s      -> analyzer.timeout
//	METALENS_STORE_PATH=/var/lib/m.db  -> store.path
//
// A missing file is not an error; defaults apply.
//
// # Configuration File Structure
//
//	server:
//	  address: ":8080"
//	  allow_all_origins: false
//	analyzer:
//	  user_agent: "Mozilla/5.0 ..."
//	  timeout: 10s
//	  title_min: 30
//	  title_max: 60
//	feedback:
//	  warning_delay: 5s
//	  busy_ceiling: 30s
//	store:
//	  path: metalens.db
//	export:
//	  bucket: seo-reports
//	  prefix: reports/
//	log:
//	  level: info
//	  format: text
//
// # Usage
//
//	cfg, err := config.Load("metalens.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config
