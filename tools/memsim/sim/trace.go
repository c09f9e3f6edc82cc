package sim

import (
	"database/sql"
	"fmt"
	"os"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"

	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// SQLiteTracer stores operation results in a SQLite database. Results are
// buffered and written in batches; the buffer is also flushed when the
// program exits through atexit.
type SQLiteTracer struct {
	*sql.DB
	statement *sql.Stmt

	dbName    string
	session   string
	pending   []Result
	batchSize int
}

// NewSQLiteTracer creates a tracer that writes to path. If path is empty a
// unique file name is derived from the session id.
func NewSQLiteTracer(path string) *SQLiteTracer {
	t := &SQLiteTracer{
		dbName:    path,
		session:   xid.New().String(),
		batchSize: 1024,
	}

	atexit.Register(func() {
		if err := t.Flush(); err != nil {
			fmt.Fprintf(os.Stderr, "memsim: flushing trace: %s\n", err)
		}
	})

	return t
}

// Session returns the id that tags every row written by this tracer.
func (t *SQLiteTracer) Session() string {
	return t.session
}

// FileName returns the path of the trace database.
func (t *SQLiteTracer) FileName() string {
	return t.dbName
}

// Init creates the trace database. It refuses to overwrite an existing file.
func (t *SQLiteTracer) Init() error {
	if t.dbName == "" {
		t.dbName = "memsim_trace_" + t.session + ".sqlite3"
	}

	if _, err := os.Stat(t.dbName); err == nil {
		return fmt.Errorf("file %s already exists", t.dbName)
	}

	db, err := sql.Open("sqlite3", t.dbName)
	if err != nil {
		return err
	}
	t.DB = db

	if _, err = t.Exec(`
		CREATE TABLE IF NOT EXISTS ops
		(
			session     VARCHAR(20)  NOT NULL,
			seq         INTEGER      NOT NULL,
			line        INTEGER      NOT NULL,
			op          VARCHAR(16)  NOT NULL,
			args        VARCHAR(100) NOT NULL,
			page        INTEGER      NOT NULL,
			frame       INTEGER      NOT NULL,
			addr        INTEGER      NOT NULL,
			free_frames INTEGER      NOT NULL,
			tlb_flushes INTEGER      NOT NULL,
			error       VARCHAR(100) NULL,
			fatal       BOOLEAN      NOT NULL
		);
	`); err != nil {
		return err
	}

	t.statement, err = t.Prepare(`INSERT INTO ops VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	return err
}

// Record buffers a result and writes the buffer once it is full.
func (t *SQLiteTracer) Record(res Result) {
	t.pending = append(t.pending, res)
	if len(t.pending) >= t.batchSize {
		if err := t.Flush(); err != nil {
			panic(err)
		}
	}
}

// Flush writes all buffered results in a single transaction.
func (t *SQLiteTracer) Flush() error {
	if len(t.pending) == 0 || t.DB == nil {
		return nil
	}

	tx, err := t.Begin()
	if err != nil {
		return err
	}

	stmt := tx.Stmt(t.statement)
	for _, res := range t.pending {
		var errMsg sql.NullString
		if res.Err != nil {
			errMsg = sql.NullString{String: res.Err.Module + ": " + res.Err.Message, Valid: true}
		}

		frame := int64(res.Frame)
		if !res.Frame.Valid() {
			frame = -1
		}

		if _, err = stmt.Exec(
			t.session,
			res.Seq,
			res.Op.Line,
			res.Op.Kind.String(),
			fmt.Sprint(res.Op.Args),
			int64(res.Page),
			frame,
			int64(res.Addr),
			res.FreeFrames,
			res.Flushes,
			errMsg,
			res.Fatal,
		); err != nil {
			_ = tx.Rollback()
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return err
	}

	t.pending = nil
	return nil
}
