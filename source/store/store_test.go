package store

import (
	"database/sql"
	"os"
	"strings"
	"testing"
)

func openTestDB(t *testing.T) *sql.DB {
	db, err := GetdB("SQLite", "", "", ":memory:", "", "")
	if err != nil {
		t.Fatalf("couldn't open the test database: %v", err)
	}
	// Each connection to ':memory:' is a fresh empty database, so the pool
	// must be kept to one connection.
	db.SetMaxOpenConns(1)
	if err := CreateTables(db); err != nil {
		t.Fatalf("couldn't create the tables: %v", err)
	}
	return db
}

func TestUsers(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	if err := AddUser(db, "douglas", "Douglas", "Gresham", "doug@example.com", "squeamish", false); err != nil {
		t.Fatalf("couldn't add a user: %v", err)
	}

	admin, err := ValidateUser(db, "douglas", "squeamish")
	if err != nil {
		t.Fatalf("couldn't validate a user with the right password: %v", err)
	}
	if admin {
		t.Fatalf("a plain user came back as an admin")
	}

	if _, err := ValidateUser(db, "douglas", "ossifrage"); err == nil {
		t.Fatalf("validated a user with the wrong password")
	}
	if _, err := ValidateUser(db, "nobody", "squeamish"); err == nil {
		t.Fatalf("validated a user who doesn't exist")
	}

	if admin, _ := IsUserAdmin(db, "douglas"); admin {
		t.Fatalf("IsUserAdmin thinks a plain user is an admin")
	}
}

func TestAddAdmin(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	dir := t.TempDir() + "/"
	if err := os.Mkdir(dir+"user", 0777); err != nil {
		t.Fatalf("couldn't make the user directory: %v", err)
	}

	if err := AddAdmin(db, "margaret", "Margaret", "Hamilton", "mh@example.com", "apollo", dir); err != nil {
		t.Fatalf("couldn't add an admin: %v", err)
	}

	admin, err := ValidateUser(db, "margaret", "apollo")
	if err != nil {
		t.Fatalf("couldn't validate the admin: %v", err)
	}
	if !admin {
		t.Fatalf("the admin came back as a plain user")
	}
	if admin, _ := IsUserAdmin(db, "margaret"); !admin {
		t.Fatalf("IsUserAdmin doesn't think the admin is an admin")
	}

	if _, err := os.Stat(dir + "user/admin.dat"); err != nil {
		t.Fatalf("AddAdmin didn't leave its marker file: %v", err)
	}
}

func TestTranscripts(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	if err := AddUser(db, "ada", "Ada", "Lovelace", "ada@example.com", "analytical", false); err != nil {
		t.Fatalf("couldn't add a user: %v", err)
	}

	saved := []Exchange{
		{Input: "def twice(x) x * 2", Output: "def twice(x) (x * 2)"},
		{Input: "twice(21)", Output: "twice(21)"},
	}
	if err := SaveTranscript(db, "demo", "ada", "fib", saved); err != nil {
		t.Fatalf("couldn't save the transcript: %v", err)
	}

	got, err := GetTranscript(db, "demo")
	if err != nil {
		t.Fatalf("couldn't get the transcript back: %v", err)
	}
	if len(got) != len(saved) {
		t.Fatalf("transcript has the wrong length. expected=%v, got=%v", len(saved), len(got))
	}
	for i, v := range got {
		if v != saved[i] {
			t.Fatalf("exchange %v came back wrong. expected=%v, got=%v", i, saved[i], v)
		}
	}

	if _, err := GetTranscript(db, "nonexistent"); err == nil {
		t.Fatalf("got a transcript that was never saved")
	}

	list, err := GetTranscriptList(db, "ada")
	if err != nil {
		t.Fatalf("couldn't list the transcripts: %v", err)
	}
	if !strings.Contains(list, "demo") {
		t.Fatalf("the list doesn't mention the transcript: %q", list)
	}

	list, err = GetTranscriptList(db, "nobody")
	if err != nil {
		t.Fatalf("couldn't list the transcripts of a user without any: %v", err)
	}
	if list != "You have no archived transcripts." {
		t.Fatalf("wrong message for a user without transcripts: %q", list)
	}
}
