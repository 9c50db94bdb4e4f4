package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tieubaoca/studytool-be/repository"
	"github.com/tieubaoca/studytool-be/storage"
	"github.com/tieubaoca/studytool-be/testutil"
	"github.com/tieubaoca/studytool-be/types"
)

// buildPDF writes a minimal PDF with one Helvetica text line per page. An
// empty string gives a page that only draws a line.
func buildPDF(pages ...string) []byte {
	var buf bytes.Buffer
	var offsets []int
	object := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")
	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	object("<< /Type /Catalog /Pages 2 0 R >>")
	object(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)))
	object("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")
	for i, text := range pages {
		content := "0 0 m 100 100 l S"
		if text != "" {
			content = fmt.Sprintf("BT /F1 24 Tf 72 720 Td (%s) Tj ET", text)
		}
		object(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i))
		object(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}

type fakeReply struct {
	text string
	err  error
}

// fakeAI replays canned replies in order, repeating the last one. With
// block set it waits for the context instead.
type fakeAI struct {
	mu      sync.Mutex
	replies []fakeReply
	block   bool
	prompts []string
}

func (f *fakeAI) Generate(ctx context.Context, systemPrompt, prompt string) (string, error) {
	f.mu.Lock()
	n := len(f.prompts)
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(f.replies) == 0 {
		return "", nil
	}
	if n >= len(f.replies) {
		n = len(f.replies) - 1
	}
	return f.replies[n].text, f.replies[n].err
}

func (f *fakeAI) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func (f *fakeAI) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

// mapCache is an in-memory cache.TextCache.
type mapCache struct {
	mu      sync.Mutex
	entries map[string]string
	hits    int
}

func newMapCache() *mapCache {
	return &mapCache{entries: map[string]string{}}
}

func (c *mapCache) Get(_ context.Context, name string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	text, ok := c.entries[name]
	if ok {
		c.hits++
	}
	return text, ok
}

func (c *mapCache) Set(_ context.Context, name, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[name] = text
}

func (c *mapCache) Delete(_ context.Context, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, name)
}

func asUser(userID string) context.Context {
	return types.WithPrincipal(context.Background(), types.Principal{UserID: userID})
}

type fixture struct {
	files     FileService
	artifacts ArtifactService
	blobs     storage.BlobStore
	cache     *mapCache
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.DB(t)
	blobs, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	log := testutil.Logger(t)
	textCache := newMapCache()

	return &fixture{
		files:     NewFileService(DefaultDocumentServiceConfig, repository.NewFileRepo(db), blobs, NewTextExtractor(), textCache, log),
		artifacts: NewArtifactService(repository.NewArtifactRepo(db), log),
		blobs:     blobs,
		cache:     textCache,
	}
}

func (f *fixture) store(t *testing.T, ctx context.Context, name string, data []byte) string {
	t.Helper()
	stored, err := f.files.Store(ctx, name, bytes.NewReader(data))
	require.NoError(t, err)
	return stored.StoredFilename
}
