// Package config loads the uploadui configuration.
//
// Settings come from uploadui.json in the working directory, then from
// the environment. A .env file is read first when present; variables
// already set in the process environment win over it.
//
// # Configuration File Structure
//
//	{
//	  "api_base_url": "http://localhost:8000",
//	  "listen_addr": ":8080",
//	  "upload": {
//	    "max_file_size": 10485760,
//	    "supported_extensions": [".pdf", ".docx", ".txt", ".html", ".md", ".htm"],
//	    "stats_refresh_delay": "2s",
//	    "alert_ttl": "5s",
//	    "max_concurrent": 4
//	  },
//	  "staging": {
//	    "backend": "disk",
//	    "dir": "/var/tmp/uploadui",
//	    "max_age": "1h"
//	  },
//	  "log": {"level": "info", "format": "text"}
//	}
//
// # Environment
//
// Every field has an environment key; see the Env* constants.
//
// # Usage
//
//	cfg, err := config.Resolve(".")
//	if err != nil {
//	    errors.PrintError(err)
//	    os.Exit(1)
//	}
package config
