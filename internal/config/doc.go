// Package config loads the lazyhydrate project configuration.
//
// The configuration lives in lazyhydrate.json or lazyhydrate.yaml at the
// project root. When both exist the JSON file wins.
//
// # Configuration File Structure
//
//	{
//	  "compile": {
//	    "extensions": [".vue", ".html"],
//	    "output": "dist",
//	    "strict": false
//	  },
//	  "serve": {
//	    "host": "localhost",
//	    "port": 7331,
//	    "maxBodySize": 1048576
//	  },
//	  "bridge": {
//	    "readTimeout": "60s",
//	    "writeTimeout": "10s"
//	  },
//	  "publish": {
//	    "bucket": "assets",
//	    "prefix": "templates/",
//	    "region": "eu-west-1"
//	  },
//	  "log": {
//	    "level": "info",
//	    "format": "text"
//	  }
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Listening on", cfg.Address())
package config
