package service_test

import (
	"context"
	"sync"
	"testing"

	"alphabot/internal/modules/chatbot/application/dto/request"
	"alphabot/internal/modules/chatbot/application/service"
	"alphabot/internal/modules/chatbot/domain/knowledge"
	"alphabot/internal/modules/chatbot/domain/repository"
	"alphabot/internal/modules/chatbot/infrastructure/chunking"
	"alphabot/internal/modules/chatbot/infrastructure/embedding"
	"alphabot/internal/modules/chatbot/infrastructure/mq"
	"alphabot/internal/modules/chatbot/infrastructure/pipeline"
	"alphabot/internal/modules/chatbot/infrastructure/queue"
	"alphabot/internal/modules/chatbot/infrastructure/vectordb"
	"alphabot/pkg/xerr"

	einoembedding "github.com/cloudwego/eino/components/embedding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeKnowledgeRepo 内存版仓储, 只为服务层测试
type fakeKnowledgeRepo struct {
	mu     sync.Mutex
	docs   map[string]*knowledge.Document
	chunks map[string][]knowledge.Chunk
	events map[string]*knowledge.IngestEvent
}

func newFakeRepo() *fakeKnowledgeRepo {
	return &fakeKnowledgeRepo{
		docs:   make(map[string]*knowledge.Document),
		chunks: make(map[string][]knowledge.Chunk),
		events: make(map[string]*knowledge.IngestEvent),
	}
}

func (f *fakeKnowledgeRepo) SaveDocument(_ context.Context, doc *knowledge.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *doc
	f.docs[doc.DocID] = &cp
	return nil
}

func (f *fakeKnowledgeRepo) GetDocument(_ context.Context, docID string) (*knowledge.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d, ok := f.docs[docID]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeKnowledgeRepo) ListDocuments(_ context.Context, _, _ int) ([]knowledge.Document, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]knowledge.Document, 0, len(f.docs))
	for _, d := range f.docs {
		out = append(out, *d)
	}
	return out, int64(len(out)), nil
}

func (f *fakeKnowledgeRepo) DeleteDocument(_ context.Context, docID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.docs, docID)
	delete(f.chunks, docID)
	return nil
}

func (f *fakeKnowledgeRepo) ReplaceChunks(_ context.Context, docID string, chunks []knowledge.Chunk) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chunks[docID] = chunks
	return nil
}

func (f *fakeKnowledgeRepo) SaveIngestEvent(_ context.Context, ev *knowledge.IngestEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *ev
	f.events[ev.EventID] = &cp
	return nil
}

func (f *fakeKnowledgeRepo) GetIngestEvent(_ context.Context, eventID string) (*knowledge.IngestEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ev, ok := f.events[eventID]; ok {
		cp := *ev
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeKnowledgeRepo) UpdateIngestStatus(_ context.Context, eventID, status, lastError string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ev, ok := f.events[eventID]; ok {
		ev.Status = status
		ev.LastError = lastError
	}
	return nil
}

// switchableEmbedder 可以在测试中途切换为故障
type switchableEmbedder struct {
	inner einoembedding.Embedder
	fail  bool
}

func (s *switchableEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...einoembedding.Option) ([][]float64, error) {
	if s.fail {
		return nil, xerr.ErrEmbeddingUnavailable
	}
	return s.inner.EmbedStrings(ctx, texts, opts...)
}

const testDim = 16

type ingestFixture struct {
	svc      service.IngestService
	repo     *fakeKnowledgeRepo
	vectors  *vectordb.MemoryStore
	embedder *switchableEmbedder
}

func newIngestFixture(t *testing.T) *ingestFixture {
	t.Helper()
	ctx := context.Background()

	vectors := vectordb.NewMemoryStore(testDim)
	embedder := &switchableEmbedder{inner: embedding.NewMockEmbedder(testDim)}
	chunker := chunking.NewRecursiveChunker(chunking.WithChunkSize(50), chunking.WithOverlap(10))

	p, err := pipeline.NewIngestPipeline(ctx, chunker, embedder, vectors)
	require.NoError(t, err)

	repo := newFakeRepo()
	return &ingestFixture{
		svc:      service.NewIngestService(repo, vectors, p),
		repo:     repo,
		vectors:  vectors,
		embedder: embedder,
	}
}

func ingestReq(docID, content string) *request.IngestDocRequest {
	return &request.IngestDocRequest{DocID: docID, Title: "t", Source: "s", Content: content}
}

func TestIngestCreatesChunksAndVectors(t *testing.T) {
	f := newIngestFixture(t)

	data, err := f.svc.Ingest(context.Background(), ingestReq("doc-1",
		"First sentence about betting. Second sentence about limits. Third sentence about payouts."))
	require.NoError(t, err)
	assert.Equal(t, "doc-1", data.DocID)
	assert.Greater(t, data.ChunkNum, 1)
	assert.Equal(t, data.ChunkNum, f.vectors.Count())

	doc, err := f.repo.GetDocument(context.Background(), "doc-1")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, int64(1), doc.Version)
	assert.Len(t, f.repo.chunks["doc-1"], data.ChunkNum)
}

func TestReingestReplacesOldChunks(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()

	first, err := f.svc.Ingest(ctx, ingestReq("doc-1",
		"Long original body. It talks about many things. Enough text to make several chunks here."))
	require.NoError(t, err)

	second, err := f.svc.Ingest(ctx, ingestReq("doc-1", "Short new body."))
	require.NoError(t, err)
	assert.Less(t, second.ChunkNum, first.ChunkNum)
	// 旧切片全部被替换, 向量数等于新版本切片数
	assert.Equal(t, second.ChunkNum, f.vectors.Count())

	doc, err := f.repo.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), doc.Version)
}

// 向量化故障发生在删旧之前, 旧索引必须原封不动
func TestReingestEmbeddingFailureKeepsOldIndex(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()

	first, err := f.svc.Ingest(ctx, ingestReq("doc-1",
		"Original content. It has a couple of sentences. They become the baseline index."))
	require.NoError(t, err)
	before := f.vectors.Count()
	require.Equal(t, first.ChunkNum, before)

	f.embedder.fail = true
	_, err = f.svc.Ingest(ctx, ingestReq("doc-1", "Replacement content that will never be embedded."))
	require.Error(t, err)
	assert.ErrorIs(t, err, xerr.ErrEmbeddingUnavailable)
	assert.Equal(t, before, f.vectors.Count())
}

func TestIngestRejectsEmptyContent(t *testing.T) {
	f := newIngestFixture(t)
	_, err := f.svc.Ingest(context.Background(), ingestReq("doc-1", "   "))
	assert.ErrorIs(t, err, xerr.ErrParam)
}

func TestDeleteDocumentRemovesVectors(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()

	_, err := f.svc.Ingest(ctx, ingestReq("doc-1", "Some content to delete later."))
	require.NoError(t, err)
	require.Greater(t, f.vectors.Count(), 0)

	require.NoError(t, f.svc.DeleteDocument(ctx, "doc-1"))
	assert.Equal(t, 0, f.vectors.Count())

	doc, err := f.repo.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestIngestWorkerIdempotent(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()

	ev := &knowledge.IngestEvent{
		EventID: "ev-1", DocID: "doc-1",
		Content: "Body delivered through the queue.",
		Status:  knowledge.IngestStatusPending,
	}
	require.NoError(t, f.repo.SaveIngestEvent(ctx, ev))

	worker := queue.NewIngestWorker(f.repo, f.svc)
	msg := mq.Message{Topic: "ingest", Key: "doc-1", Value: []byte(`{"event_id":"ev-1"}`)}

	require.NoError(t, worker.Handle(ctx, msg))
	after := f.vectors.Count()
	require.Greater(t, after, 0)

	got, err := f.repo.GetIngestEvent(ctx, "ev-1")
	require.NoError(t, err)
	assert.Equal(t, knowledge.IngestStatusDone, got.Status)

	// 重投同一事件不重复入库
	require.NoError(t, worker.Handle(ctx, msg))
	assert.Equal(t, after, f.vectors.Count())
}

func TestIngestWorkerMarksFailure(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()

	require.NoError(t, f.repo.SaveIngestEvent(ctx, &knowledge.IngestEvent{
		EventID: "ev-2", DocID: "doc-2",
		Content: "Body that will fail embedding.",
		Status:  knowledge.IngestStatusPending,
	}))
	f.embedder.fail = true

	worker := queue.NewIngestWorker(f.repo, f.svc)
	err := worker.Handle(ctx, mq.Message{Value: []byte(`{"event_id":"ev-2"}`)})
	require.Error(t, err)

	got, err := f.repo.GetIngestEvent(ctx, "ev-2")
	require.NoError(t, err)
	assert.Equal(t, knowledge.IngestStatusFailed, got.Status)
	assert.NotEmpty(t, got.LastError)
}

func TestIngestWorkerSkipsUnknownEvent(t *testing.T) {
	f := newIngestFixture(t)
	worker := queue.NewIngestWorker(f.repo, f.svc)
	err := worker.Handle(context.Background(), mq.Message{Value: []byte(`{"event_id":"missing"}`)})
	assert.NoError(t, err)
}

func TestAsyncSubmitPublishesEvent(t *testing.T) {
	repo := newFakeRepo()
	pub := &capturingPublisher{}
	svc := service.NewAsyncIngestService(repo, pub, "ingest-topic")

	data, err := svc.Submit(context.Background(), ingestReq("doc-9", "Queued body."))
	require.NoError(t, err)
	assert.NotEmpty(t, data.EventID)

	require.Len(t, pub.messages, 1)
	assert.Equal(t, "ingest-topic", pub.messages[0].Topic)
	assert.Equal(t, "doc-9", pub.messages[0].Key)

	ev, err := repo.GetIngestEvent(context.Background(), data.EventID)
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, knowledge.IngestStatusPending, ev.Status)
}

type capturingPublisher struct {
	messages []mq.Message
}

func (p *capturingPublisher) Publish(_ context.Context, msg mq.Message) error {
	p.messages = append(p.messages, msg)
	return nil
}

func (p *capturingPublisher) Close() error { return nil }

var _ repository.KnowledgeRepository = (*fakeKnowledgeRepo)(nil)
var _ mq.Publisher = (*capturingPublisher)(nil)
