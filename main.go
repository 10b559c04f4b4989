package main

func main() {
	config, err := loadConfig()
	if err != nil {
		logger.Fatal(err)
	}

	store, err := connectDatabase(config)
	if err != nil {
		logger.Fatal(err)
	}
	defer store.Close()

	if err := runBot(config, store); err != nil {
		logger.Fatal(err)
	}
}
