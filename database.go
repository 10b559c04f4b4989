package main

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "github.com/go-sql-driver/mysql"
)

/**
Store is the bot's persistence boundary: command usage totals, a
daily-bucketed usage history, the blacklist, and per-guild prefixes. The
bot works with either implementation; the MySQL one is picked when DB
settings are present in the environment.
*/
type Store interface {
	IncrementUsage(command string, count int) error
	UsageTotals() (map[string]int, error)
	AddHistory(date string, count int) error
	Blacklist() ([]string, error)
	AddBlacklist(userID string) error
	Prefixes() (map[string]string, error)
	SetPrefix(guildID string, prefix string) error
	Close() error
}

// set once at startup, before any handler can run
var dataStore Store

/**
Opens the store described by the config: MySQL when credentials are set,
otherwise an in-memory fallback that loses everything on restart.
*/
func connectDatabase(config *BotConfig) (Store, error) {
	if config.DBUsername == "" {
		logWarning("No DB_USERNAME set; running without persistent storage")
		return newMemoryStore(), nil
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s)/%s", config.DBUsername, config.DBPassword, config.DBHost, config.DBName)
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}

	store := &mysqlStore{
		db:             db,
		usageTable:     config.UsageTable,
		historyTable:   config.HistoryTable,
		blacklistTable: config.BlacklistTable,
		prefixTable:    config.PrefixTable,
	}
	if err := store.createTables(); err != nil {
		return nil, err
	}
	logSuccess("Connected to database " + config.DBName + " on " + config.DBHost)
	return store, nil
}

/****
MYSQL STORE
****/

type mysqlStore struct {
	db             *sql.DB
	usageTable     string
	historyTable   string
	blacklistTable string
	prefixTable    string
}

func (store *mysqlStore) createTables() error {
	statements := []string{
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (command VARCHAR(32) PRIMARY KEY, count INT NOT NULL DEFAULT 0);", store.usageTable),
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (day VARCHAR(10) PRIMARY KEY, count INT NOT NULL DEFAULT 0);", store.historyTable),
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (user_id VARCHAR(20) PRIMARY KEY);", store.blacklistTable),
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (guild_id VARCHAR(20) PRIMARY KEY, prefix VARCHAR(4) NOT NULL);", store.prefixTable),
	}
	for _, statement := range statements {
		if !store.queryWithoutResults(statement, "Unable to create table!") {
			return fmt.Errorf("failed to run: %s", statement)
		}
	}
	return nil
}

// helper function for queries we don't need the results for.
func (store *mysqlStore) queryWithoutResults(sql string, errMessage string) bool {
	query, err := store.db.Query(sql)
	if err != nil {
		logError(errMessage + " " + err.Error())
		return false
	}
	defer query.Close()
	return true
}

func (store *mysqlStore) IncrementUsage(command string, count int) error {
	insertSQL := fmt.Sprintf("INSERT INTO %s (command, count) VALUES ('%s', %d) ON DUPLICATE KEY UPDATE count = count + %d;",
		store.usageTable, escapeSQL(command), count, count)
	if !store.queryWithoutResults(insertSQL, "Unable to update command usage!") {
		return fmt.Errorf("failed to increment usage for %s", command)
	}
	return nil
}

func (store *mysqlStore) UsageTotals() (map[string]int, error) {
	selectSQL := fmt.Sprintf("SELECT command, count FROM %s;", store.usageTable)
	results, err := store.db.Query(selectSQL)
	if err != nil {
		logError("SELECT query error, so stopping execution: " + err.Error())
		return nil, err
	}
	defer results.Close()

	totals := make(map[string]int)
	for results.Next() {
		var command string
		var count int
		if err := results.Scan(&command, &count); err != nil {
			logError("Unable to parse database information! Aborting. " + err.Error())
			return nil, err
		}
		totals[command] = count
	}
	return totals, nil
}

func (store *mysqlStore) AddHistory(date string, count int) error {
	insertSQL := fmt.Sprintf("INSERT INTO %s (day, count) VALUES ('%s', %d) ON DUPLICATE KEY UPDATE count = count + %d;",
		store.historyTable, escapeSQL(date), count, count)
	if !store.queryWithoutResults(insertSQL, "Unable to update usage history!") {
		return fmt.Errorf("failed to add history for %s", date)
	}
	return nil
}

func (store *mysqlStore) Blacklist() ([]string, error) {
	selectSQL := fmt.Sprintf("SELECT user_id FROM %s;", store.blacklistTable)
	results, err := store.db.Query(selectSQL)
	if err != nil {
		logError("SELECT query error, so stopping execution: " + err.Error())
		return nil, err
	}
	defer results.Close()

	var ids []string
	for results.Next() {
		var id string
		if err := results.Scan(&id); err != nil {
			logError("Unable to parse database information! Aborting. " + err.Error())
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (store *mysqlStore) AddBlacklist(userID string) error {
	insertSQL := fmt.Sprintf("INSERT IGNORE INTO %s (user_id) VALUES ('%s');", store.blacklistTable, escapeSQL(userID))
	if !store.queryWithoutResults(insertSQL, "Unable to insert blacklist entry!") {
		return fmt.Errorf("failed to blacklist %s", userID)
	}
	return nil
}

func (store *mysqlStore) Prefixes() (map[string]string, error) {
	selectSQL := fmt.Sprintf("SELECT guild_id, prefix FROM %s;", store.prefixTable)
	results, err := store.db.Query(selectSQL)
	if err != nil {
		logError("SELECT query error, so stopping execution: " + err.Error())
		return nil, err
	}
	defer results.Close()

	prefixes := make(map[string]string)
	for results.Next() {
		var guildID string
		var prefix string
		if err := results.Scan(&guildID, &prefix); err != nil {
			logError("Unable to parse database information! Aborting. " + err.Error())
			return nil, err
		}
		prefixes[guildID] = prefix
	}
	return prefixes, nil
}

func (store *mysqlStore) SetPrefix(guildID string, prefix string) error {
	insertSQL := fmt.Sprintf("INSERT INTO %s (guild_id, prefix) VALUES ('%s', '%s') ON DUPLICATE KEY UPDATE prefix = '%s';",
		store.prefixTable, escapeSQL(guildID), escapeSQL(prefix), escapeSQL(prefix))
	if !store.queryWithoutResults(insertSQL, "Unable to update prefix!") {
		return fmt.Errorf("failed to set prefix for guild %s", guildID)
	}
	return nil
}

func (store *mysqlStore) Close() error {
	return store.db.Close()
}

func escapeSQL(value string) string {
	value = strings.ReplaceAll(value, "\\", "\\\\")
	return strings.ReplaceAll(value, "'", "\\'")
}

/****
IN-MEMORY STORE
****/

type memoryStore struct {
	mu        sync.Mutex
	usage     map[string]int
	history   map[string]int
	blacklist map[string]bool
	prefixes  map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		usage:     make(map[string]int),
		history:   make(map[string]int),
		blacklist: make(map[string]bool),
		prefixes:  make(map[string]string),
	}
}

func (store *memoryStore) IncrementUsage(command string, count int) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.usage[command] += count
	return nil
}

func (store *memoryStore) UsageTotals() (map[string]int, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	totals := make(map[string]int, len(store.usage))
	for command, count := range store.usage {
		totals[command] = count
	}
	return totals, nil
}

func (store *memoryStore) AddHistory(date string, count int) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.history[date] += count
	return nil
}

func (store *memoryStore) Blacklist() ([]string, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	var ids []string
	for id := range store.blacklist {
		ids = append(ids, id)
	}
	return ids, nil
}

func (store *memoryStore) AddBlacklist(userID string) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.blacklist[userID] = true
	return nil
}

func (store *memoryStore) Prefixes() (map[string]string, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	prefixes := make(map[string]string, len(store.prefixes))
	for guildID, prefix := range store.prefixes {
		prefixes[guildID] = prefix
	}
	return prefixes, nil
}

func (store *memoryStore) SetPrefix(guildID string, prefix string) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.prefixes[guildID] = prefix
	return nil
}

func (store *memoryStore) Close() error {
	return nil
}
