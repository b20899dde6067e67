package services

import (
	"context"
	"time"

	"esn-monitor/backend/app/agentkey"
	"esn-monitor/backend/app/models"
	"esn-monitor/backend/app/repo"

	"github.com/rs/zerolog"
)

// IssuedKey carries the plaintext token. It is only ever returned once.
type IssuedKey struct {
	ID       string    `json:"id"`
	ServerID int64     `json:"server_id"`
	Token    string    `json:"agent_key"`
	Created  time.Time `json:"created_at"`
}

// KeyView is a stored key record with only a prefix of its hash.
type KeyView struct {
	ID          string     `json:"id"`
	ServerID    int64      `json:"server_id"`
	HashPreview string     `json:"key_hash_preview"`
	CreatedAt   time.Time  `json:"created_at"`
	RevokedAt   *time.Time `json:"revoked_at,omitempty"`
}

type KeyService struct {
	keys    *repo.AgentKeyRepository
	servers *repo.ServerRepository
	log     zerolog.Logger
}

func NewKeyService(keys *repo.AgentKeyRepository, servers *repo.ServerRepository, log zerolog.Logger) *KeyService {
	return &KeyService{keys: keys, servers: servers, log: log}
}

// Issue generates a key for an existing server and stores its sha256 hash.
func (s *KeyService) Issue(ctx context.Context, serverID int64) (*IssuedKey, error) {
	ok, err := s.servers.Exists(ctx, serverID)
	if err != nil {
		return nil, storeErr("issue key", err)
	}
	if !ok {
		return nil, storeErr("issue key", repo.ErrNotFound)
	}
	return s.store(ctx, serverID)
}

func (s *KeyService) store(ctx context.Context, serverID int64) (*IssuedKey, error) {
	token, hash, err := agentkey.Generate()
	if err != nil {
		return nil, err
	}
	rec := &models.AgentKey{ServerID: serverID, KeyHash: hash, CreatedAt: time.Now().UTC()}
	if err := s.keys.Create(ctx, rec); err != nil {
		return nil, storeErr("issue key", err)
	}
	return &IssuedKey{ID: rec.ID, ServerID: serverID, Token: token, Created: rec.CreatedAt}, nil
}

// Seed is the bootstrap path: it creates region "test" and a minimal server
// row when they are missing, then issues a key. Re-reading the stored record
// afterwards is best-effort.
func (s *KeyService) Seed(ctx context.Context, serverID int64) (*IssuedKey, error) {
	region, err := s.servers.EnsureRegion(ctx, "test")
	if err != nil {
		return nil, storeErr("seed region", err)
	}
	srv := &models.Server{ID: serverID, RegionID: &region.ID, IP: "127.0.0.1", CGMVersion: "unknown", AdminVersion: "unknown"}
	if err := s.servers.EnsureServer(ctx, srv); err != nil {
		return nil, storeErr("seed server", err)
	}
	issued, err := s.store(ctx, serverID)
	if err != nil {
		return nil, err
	}
	if _, err := s.keys.FindByID(ctx, issued.ID); err != nil {
		s.log.Warn().Err(err).Str("key_id", issued.ID).Msg("refresh seeded key failed")
	}
	return issued, nil
}

func (s *KeyService) List(ctx context.Context, serverID int64) ([]KeyView, error) {
	keys, err := s.keys.ListByServer(ctx, serverID)
	if err != nil {
		return nil, storeErr("list keys", err)
	}
	out := make([]KeyView, 0, len(keys))
	for _, k := range keys {
		out = append(out, KeyView{ID: k.ID, ServerID: k.ServerID, HashPreview: agentkey.Preview(k.KeyHash), CreatedAt: k.CreatedAt, RevokedAt: k.RevokedAt})
	}
	return out, nil
}

func (s *KeyService) Revoke(ctx context.Context, id string) error {
	return storeErr("revoke key", s.keys.Revoke(ctx, id, time.Now().UTC()))
}
