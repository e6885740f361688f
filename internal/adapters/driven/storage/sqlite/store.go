// Package sqlite implements the document store on SQLite via the pure-Go
// modernc driver. The database uses WAL mode so ingestion workers and
// queries can run concurrently.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/cargolens/cargolens-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/cargolens/cargolens-cli/internal/core/domain"
	"github.com/cargolens/cargolens-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.DocumentStore = (*Store)(nil)

// Store is the SQLite-backed document store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (creating if needed) the database at dbPath and brings
// the schema up to date.
func NewStore(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	// WAL mode for better concurrency; busy timeout covers writer overlap.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{db: db, path: dbPath}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// SaveDocument inserts or updates a document record.
func (s *Store) SaveDocument(ctx context.Context, doc *domain.Document) error {
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (
			doc_id, filename, local_path, blob_url, file_size, file_hash, page_count,
			customer_name, doc_type, doc_date, shipment_id, container_id,
			port_of_origin, port_of_destination, invoice_number, invoice_amount,
			processing_status, error_message, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(doc_id) DO UPDATE SET
			filename = excluded.filename,
			local_path = excluded.local_path,
			blob_url = excluded.blob_url,
			file_size = excluded.file_size,
			file_hash = excluded.file_hash,
			page_count = excluded.page_count,
			customer_name = excluded.customer_name,
			doc_type = excluded.doc_type,
			doc_date = excluded.doc_date,
			shipment_id = excluded.shipment_id,
			container_id = excluded.container_id,
			port_of_origin = excluded.port_of_origin,
			port_of_destination = excluded.port_of_destination,
			invoice_number = excluded.invoice_number,
			invoice_amount = excluded.invoice_amount,
			processing_status = excluded.processing_status,
			error_message = excluded.error_message,
			updated_at = excluded.updated_at
	`, doc.ID, doc.Filename, nullString(doc.LocalPath), nullString(doc.BlobURL),
		doc.FileSize, nullString(doc.FileHash), doc.PageCount,
		nullString(doc.Metadata.CustomerName), nullString(string(doc.Metadata.DocType)),
		nullString(doc.Metadata.DocDate), nullString(doc.Metadata.ShipmentID),
		nullString(doc.Metadata.ContainerID), nullString(doc.Metadata.PortOfOrigin),
		nullString(doc.Metadata.PortOfDestination), nullString(doc.Metadata.InvoiceNumber),
		doc.Metadata.InvoiceAmount,
		string(doc.Status), nullString(doc.ErrorMessage), doc.CreatedAt, doc.UpdatedAt)

	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// UpdateStatus moves a document to a new processing status.
func (s *Store) UpdateStatus(ctx context.Context, docID string, status domain.ProcessingStatus, message string) error {
	var msg any
	if status == domain.StatusFailed && message != "" {
		msg = message
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE documents
		SET processing_status = ?, error_message = ?, updated_at = ?
		WHERE doc_id = ?
	`, string(status), msg, time.Now().UTC(), docID)
	if err != nil {
		return fmt.Errorf("updating status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetDocument retrieves a document by id.
func (s *Store) GetDocument(ctx context.Context, docID string) (*domain.Document, error) {
	row := s.db.QueryRowContext(ctx, documentSelect+" WHERE doc_id = ?", docID)

	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("getting document: %w", err)
	}
	return doc, nil
}

// InsertChunks atomically inserts all chunks for one document and returns
// the assigned ids in input order.
func (s *Store) InsertChunks(ctx context.Context, chunks []domain.Chunk) ([]int64, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (
			doc_id, chunk_index, chunk_text, chunk_embedding_id,
			customer_name, doc_type, doc_date, shipment_id, blob_url
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	ids := make([]int64, len(chunks))
	for i, c := range chunks {
		res, err := stmt.ExecContext(ctx,
			c.DocumentID, c.Position, c.Text, c.EmbeddingID,
			nullString(c.CustomerName), nullString(string(c.DocType)),
			nullString(c.DocDate), nullString(c.ShipmentID), nullString(c.BlobURL))
		if err != nil {
			return nil, fmt.Errorf("inserting chunk %d: %w", i, err)
		}
		ids[i], err = res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("reading chunk id: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing chunks: %w", err)
	}
	return ids, nil
}

// GetChunk retrieves a chunk by its durable id.
func (s *Store) GetChunk(ctx context.Context, chunkID int64) (*domain.Chunk, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT chunk_id, doc_id, chunk_index, chunk_text, chunk_embedding_id,
		       customer_name, doc_type, doc_date, shipment_id, blob_url
		FROM chunks WHERE chunk_id = ?
	`, chunkID)

	var (
		c           domain.Chunk
		embeddingID sql.NullInt64
		customer    sql.NullString
		docType     sql.NullString
		docDate     sql.NullString
		shipment    sql.NullString
		blobURL     sql.NullString
	)
	err := row.Scan(&c.ID, &c.DocumentID, &c.Position, &c.Text, &embeddingID,
		&customer, &docType, &docDate, &shipment, &blobURL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("getting chunk: %w", err)
	}

	if embeddingID.Valid {
		id := embeddingID.Int64
		c.EmbeddingID = &id
	}
	c.CustomerName = customer.String
	c.DocType = domain.DocType(docType.String)
	c.DocDate = docDate.String
	c.ShipmentID = shipment.String
	c.BlobURL = blobURL.String
	return &c, nil
}

// ListDocuments returns up to limit documents, most recent first.
func (s *Store) ListDocuments(ctx context.Context, limit int) ([]domain.Document, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, documentSelect+" ORDER BY created_at DESC, doc_id LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

// DeleteDocument removes a document; chunks cascade.
func (s *Store) DeleteDocument(ctx context.Context, docID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE doc_id = ?", docID)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListEmbeddingPairs returns every (embedding id, chunk id) pair for
// indexed chunks.
func (s *Store) ListEmbeddingPairs(ctx context.Context) ([]driven.EmbeddingPair, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT chunk_embedding_id, chunk_id FROM chunks
		WHERE chunk_embedding_id IS NOT NULL
	`)
	if err != nil {
		return nil, fmt.Errorf("listing embedding pairs: %w", err)
	}
	defer rows.Close()

	var pairs []driven.EmbeddingPair
	for rows.Next() {
		var p driven.EmbeddingPair
		if err := rows.Scan(&p.EmbeddingID, &p.ChunkID); err != nil {
			return nil, fmt.Errorf("scanning embedding pair: %w", err)
		}
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}

// Stats reports corpus-level counts.
func (s *Store) Stats(ctx context.Context) (*domain.Stats, error) {
	stats := &domain.Stats{}

	row := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM documents),
			(SELECT COUNT(*) FROM chunks),
			(SELECT COUNT(DISTINCT customer_name) FROM documents
			 WHERE customer_name IS NOT NULL AND customer_name != '')
	`)
	if err := row.Scan(&stats.TotalDocuments, &stats.TotalChunks, &stats.UniqueCustomers); err != nil {
		return nil, fmt.Errorf("reading stats: %w", err)
	}
	return stats, nil
}

const documentSelect = `
	SELECT doc_id, filename, local_path, blob_url, file_size, file_hash, page_count,
	       customer_name, doc_type, doc_date, shipment_id, container_id,
	       port_of_origin, port_of_destination, invoice_number, invoice_amount,
	       processing_status, error_message, created_at, updated_at
	FROM documents`

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (*domain.Document, error) {
	var (
		doc       domain.Document
		localPath sql.NullString
		blobURL   sql.NullString
		fileHash  sql.NullString
		customer  sql.NullString
		docType   sql.NullString
		docDate   sql.NullString
		shipment  sql.NullString
		container sql.NullString
		origin    sql.NullString
		dest      sql.NullString
		invoiceNo sql.NullString
		amount    sql.NullFloat64
		status    string
		errMsg    sql.NullString
	)

	err := row.Scan(&doc.ID, &doc.Filename, &localPath, &blobURL, &doc.FileSize, &fileHash,
		&doc.PageCount, &customer, &docType, &docDate, &shipment, &container,
		&origin, &dest, &invoiceNo, &amount, &status, &errMsg,
		&doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return nil, err
	}

	doc.LocalPath = localPath.String
	doc.BlobURL = blobURL.String
	doc.FileHash = fileHash.String
	doc.Metadata = domain.Metadata{
		CustomerName:      customer.String,
		DocType:           domain.DocType(docType.String),
		DocDate:           docDate.String,
		ShipmentID:        shipment.String,
		ContainerID:       container.String,
		PortOfOrigin:      origin.String,
		PortOfDestination: dest.String,
		InvoiceNumber:     invoiceNo.String,
	}
	if amount.Valid {
		v := amount.Float64
		doc.Metadata.InvoiceAmount = &v
	}
	doc.Status = domain.ProcessingStatus(status)
	doc.ErrorMessage = errMsg.String
	return &doc, nil
}

// nullString converts empty strings to NULL for storage.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
