/*
Package config reads the contentgate server configuration.

Load applies a .env file with godotenv, then reads the environment into Config
with cleanenv. Variables already present in the environment win over the file.

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

Validate rejects combinations cleanenv cannot express, such as the redis lock
backend without REDIS_URL or REDIS_ADDR.
*/
package config
