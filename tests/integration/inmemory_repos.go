package integration

import (
	"context"
	"fmt"
	"sync"

	"prepaid-wallet-service/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// --- In-Memory Client Repo ---

type inMemoryClientRepo struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]*domain.Client
}

func newInMemoryClientRepo() *inMemoryClientRepo {
	return &inMemoryClientRepo{clients: make(map[uuid.UUID]*domain.Client)}
}

func (r *inMemoryClientRepo) Create(ctx context.Context, tx pgx.Tx, c *domain.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.clients {
		if existing.Document == c.Document {
			return fmt.Errorf("document already exists")
		}
	}
	r.clients[c.ID] = c
	return nil
}

func (r *inMemoryClientRepo) GetByDocument(ctx context.Context, document string) (*domain.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.clients {
		if c.Document == document {
			return c, nil
		}
	}
	return nil, nil
}

func (r *inMemoryClientRepo) GetByDocumentAndPhone(ctx context.Context, document, phone string) (*domain.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.clients {
		if c.Document == document && c.Phone == phone {
			return c, nil
		}
	}
	return nil, nil
}

// --- In-Memory Wallet Repo ---

type inMemoryWalletRepo struct {
	mu      sync.RWMutex
	wallets map[uuid.UUID]*domain.Wallet
}

func newInMemoryWalletRepo() *inMemoryWalletRepo {
	return &inMemoryWalletRepo{wallets: make(map[uuid.UUID]*domain.Wallet)}
}

func (r *inMemoryWalletRepo) Create(ctx context.Context, tx pgx.Tx, w *domain.Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *w
	r.wallets[w.ID] = &cp
	return nil
}

func (r *inMemoryWalletRepo) GetByClientID(ctx context.Context, clientID uuid.UUID) (*domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, w := range r.wallets {
		if w.ClientID == clientID {
			cp := *w
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryWalletRepo) GetByClientIDForUpdate(ctx context.Context, tx pgx.Tx, clientID uuid.UUID) (*domain.Wallet, error) {
	return r.GetByClientID(ctx, clientID)
}

func (r *inMemoryWalletRepo) GetBySessionID(ctx context.Context, sessionID string) (*domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, w := range r.wallets {
		if w.PendingSessionID != nil && *w.PendingSessionID == sessionID {
			cp := *w
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryWalletRepo) GetBySessionIDForUpdate(ctx context.Context, tx pgx.Tx, sessionID string) (*domain.Wallet, error) {
	return r.GetBySessionID(ctx, sessionID)
}

func (r *inMemoryWalletRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, newBalance int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[walletID]
	if !ok {
		return fmt.Errorf("wallet not found")
	}
	w.Balance = newBalance
	return nil
}

func (r *inMemoryWalletRepo) SetSession(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, s domain.PendingSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[walletID]
	if !ok {
		return fmt.Errorf("wallet not found")
	}
	w.SetSession(s)
	return nil
}

// DebitAndClearSession mirrors the SQL predicate: the mutation only applies
// while the given session is still pending on the wallet.
func (r *inMemoryWalletRepo) DebitAndClearSession(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, sessionID string, newBalance int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[walletID]
	if !ok {
		return fmt.Errorf("wallet not found")
	}
	if w.PendingSessionID == nil || *w.PendingSessionID != sessionID {
		return fmt.Errorf("pending session %s no longer on wallet %s", sessionID, walletID)
	}
	w.Balance = newBalance
	w.ClearSession()
	return nil
}

// --- Serializing Transactor ---

// lockingTransactor serializes all transactions behind one mutex, standing in
// for row-level SELECT FOR UPDATE. Two racing confirms are forced into the
// same order a real database would impose, so exactly one of them still sees
// the pending session.
type lockingTransactor struct {
	mu sync.Mutex
}

func newLockingTransactor() *lockingTransactor {
	return &lockingTransactor{}
}

func (t *lockingTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	t.mu.Lock()
	return &lockedTx{release: &t.mu}, nil
}

// lockedTx is a no-op pgx.Tx that releases the transactor lock exactly once,
// on whichever of Commit or Rollback comes first.
type lockedTx struct {
	release *sync.Mutex
	once    sync.Once
}

func (t *lockedTx) unlock() {
	t.once.Do(func() { t.release.Unlock() })
}

func (t *lockedTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *lockedTx) Commit(ctx context.Context) error          { t.unlock(); return nil }
func (t *lockedTx) Rollback(ctx context.Context) error        { t.unlock(); return nil }
func (t *lockedTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *lockedTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *lockedTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *lockedTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *lockedTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *lockedTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *lockedTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *lockedTx) Conn() *pgx.Conn { return nil }

// --- Recording Notifier ---

// recordingNotifier captures issued tokens the way a mailbox would, so tests
// can read the token that initiation "delivered".
type recordingNotifier struct {
	mu     sync.Mutex
	tokens map[string]string // sessionID -> token
	emails map[string]string // sessionID -> recipient
	fail   bool
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{
		tokens: make(map[string]string),
		emails: make(map[string]string),
	}
}

func (n *recordingNotifier) SendToken(ctx context.Context, email, token, sessionID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return fmt.Errorf("smtp unavailable")
	}
	n.tokens[sessionID] = token
	n.emails[sessionID] = email
	return nil
}

func (n *recordingNotifier) tokenFor(sessionID string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.tokens[sessionID]
}

func (n *recordingNotifier) recipientFor(sessionID string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.emails[sessionID]
}
