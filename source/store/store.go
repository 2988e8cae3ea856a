package store

// The hub's view of SQL: user accounts and archived transcripts. This is hub
// administration stuff and not part of the language, so no efforts to keep it
// DRY and minimal efforts at error-handling.

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sort"

	"golang.org/x/crypto/bcrypt"

	"github.com/kaleido-lang/kaleido/source/text"

	// SQL drivers

	_ "github.com/go-sql-driver/mysql"  // MariaDB & MySQL
	_ "github.com/lib/pq"               // Postgres
	_ "github.com/nakagami/firebirdsql" // Firebird
	_ "github.com/sijms/go-ora"         // Oracle
	_ "modernc.org/sqlite"              // SQLite
)

// List of SQL drivers for when I want to import more: https://zchee.github.io/golang-wiki/SQLDrivers/

var (
	drivers = map[string]string{"Firebird SQL": "firebirdsql", "MariaDB": "mysql", "MySQL": "mysql",
		"Oracle": "oracle", "Postgres": "postgres", "SQLite": "sqlite"}
)

var tables = []string{
	`CREATE TABLE IF NOT EXISTS _Users (
    username varchar(32),
    firstName varchar(32),
    lastName varchar(32),
    password varchar(60),
    email varchar(60),
    admin BOOLEAN DEFAULT FALSE,
PRIMARY KEY (username))`,

	`CREATE TABLE IF NOT EXISTS _Transcripts (
    transcriptName varchar(60),
    username varchar(32) REFERENCES _Users ON DELETE CASCADE,
    serviceName varchar(32),
PRIMARY KEY (transcriptName))`,

	`CREATE TABLE IF NOT EXISTS _Exchanges (
    transcriptName varchar(60) REFERENCES _Transcripts ON DELETE CASCADE,
    ordinal INTEGER,
    input TEXT,
    output TEXT,
PRIMARY KEY (transcriptName, ordinal))`,
}

func GetdB(driver, host, port, db, user, password string) (*sql.DB, error) {

	connectionString := fmt.Sprintf("host=%v port=%v dbname=%v user=%v password=%v sslmode=disable",
		host, port, db, user, password)

	if drivers[driver] == "sqlite" {
		// SQLite doesn't do networking. The name of the database is just a filepath.
		connectionString = db
	}

	sqlObj, connectionError := sql.Open(drivers[driver], connectionString)
	if connectionError != nil {
		return nil, connectionError
	}

	err := sqlObj.Ping()

	if err != nil {
		return nil, err
	}

	return sqlObj, nil
}

func GetDriverOptions() string {
	result := "The following SQL drivers are available: \n\n"
	for k, v := range GetSortedDrivers() {
		result = result + fmt.Sprintf("  [%v] %v\n", k, v)
	}
	result = result + "\nPick a number"
	return result
}

func GetSortedDrivers() []string {
	dr := []string{}
	for k := range drivers {
		dr = append(dr, k)
	}
	sort.Strings(dr)
	return dr
}

func CreateTables(db *sql.DB) error {
	for _, query := range tables {
		if _, err := db.Exec(query); err != nil {
			return err
		}
	}
	return nil
}

func AddAdmin(db *sql.DB, username, firstName, lastName, email, password, dir string) error {

	err := CreateTables(db)
	if err != nil {
		return err
	}

	err = AddUser(db, username, firstName, lastName, email, password, true)
	if err != nil {
		return err
	}

	// This should only ever happen to a hub once. We create the file "user/admin.dat"
	// to prove that it has.
	_, err = os.Create(dir + "user/admin.dat")
	return err
}

func AddUser(db *sql.DB, username, firstName, lastName, email, password string, admin bool) error {
	query :=
		`INSERT INTO _Users(username, firstName, lastName, password, email, admin)
	VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := db.Exec(query, username, firstName, lastName, encrypt(password), encrypt(email), admin)

	return err
}

type userRow struct {
	password string
	admin    bool
}

func ValidateUser(db *sql.DB, username, password string) (bool, error) {
	var userData userRow

	rows, err := db.Query("SELECT password, admin FROM _Users WHERE username = $1", username)
	if err != nil {
		return false, err
	}
	defer rows.Close()
	for rows.Next() {
		if err := rows.Scan(&userData.password, &userData.admin); err != nil {
			return false, err
		}
		if err = bcrypt.CompareHashAndPassword([]byte(userData.password), []byte(password)); err != nil {
			return false, errors.New("the hub doesn't recognize that combination of username and password")
		}

		return userData.admin, nil

	}
	// The case where there are no rows.
	return false, errors.New("the hub doesn't recognize that combination of username and password")
}

func IsUserAdmin(db *sql.DB, username string) (bool, error) {
	var count int

	row := db.QueryRow("SELECT COUNT (*) FROM _Users WHERE username = $1 AND admin = TRUE",
		username)
	err := row.Scan(&count)
	if err != nil {
		return false, err
	}
	return count == 1, nil
}

// An Exchange is one step of a transcript: what was typed at the service, and
// what the service said back.
type Exchange struct {
	Input  string
	Output string
}

func SaveTranscript(db *sql.DB, transcriptName, username, serviceName string, exchanges []Exchange) error {
	query :=
		`INSERT INTO _Transcripts(transcriptName, username, serviceName)
	VALUES ($1, $2, $3)`
	_, err := db.Exec(query, transcriptName, username, serviceName)
	if err != nil {
		return err
	}
	for i, v := range exchanges {
		query =
			`INSERT INTO _Exchanges(transcriptName, ordinal, input, output)
	VALUES ($1, $2, $3, $4)`
		_, err = db.Exec(query, transcriptName, i, v.Input, v.Output)
		if err != nil {
			return err
		}
	}
	return nil
}

func GetTranscript(db *sql.DB, transcriptName string) ([]Exchange, error) {
	rows, err := db.Query(
		`SELECT input, output FROM _Exchanges WHERE transcriptName = $1 ORDER BY ordinal`,
		transcriptName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exchanges []Exchange

	for rows.Next() {
		var ex Exchange
		if err := rows.Scan(&ex.Input, &ex.Output); err != nil {
			return nil, err
		}
		exchanges = append(exchanges, ex)
	}

	if len(exchanges) == 0 {
		return nil, errors.New("the hub doesn't have a transcript called " + text.Emph(transcriptName))
	}

	return exchanges, nil
}

type transcriptRow struct {
	transcriptName string
	serviceName    string
}

func GetTranscriptList(db *sql.DB, username string) (string, error) {
	rows, err := db.Query("SELECT transcriptName, serviceName FROM _Transcripts WHERE username = $1", username)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	var transcripts []transcriptRow

	for rows.Next() {
		var tr transcriptRow
		if err := rows.Scan(&tr.transcriptName, &tr.serviceName); err != nil {
			return "", err
		}
		transcripts = append(transcripts, tr)
	}

	if len(transcripts) == 0 {
		return "You have no archived transcripts.", nil
	}

	sort.Slice(transcripts, func(i, j int) bool {
		return transcripts[i].transcriptName < transcripts[j].transcriptName
	})

	result := "\nYou have archived the following transcripts:\n\n"
	for _, v := range transcripts {
		result = result + text.BULLET + v.transcriptName + " (from service " + text.Emph(v.serviceName) + ")\n"
	}

	return result + "\n", nil
}

func encrypt(s string) string {
	result, _ := bcrypt.GenerateFromPassword([]byte(s), bcrypt.DefaultCost)
	return string(result)
}
