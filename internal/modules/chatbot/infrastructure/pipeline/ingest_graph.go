package pipeline

import (
	"context"

	"github.com/cloudwego/eino/compose"
)

const (
	nodeChunk   = "Chunk"
	nodeEmbed   = "Embed"
	nodeReplace = "Replace"
	nodeFinish  = "Finish"
)

type ingestRunner = compose.Runnable[*IngestRequest, *IngestResult]

func buildIngestGraph(ctx context.Context, p *IngestPipeline) (ingestRunner, error) {
	g := compose.NewGraph[*IngestRequest, *IngestResult]()

	prepare := func(_ context.Context, req *IngestRequest) (*ingestState, error) {
		return &ingestState{Req: req}, nil
	}
	finish := func(_ context.Context, st *ingestState) (*IngestResult, error) {
		if st.Err != nil {
			return nil, st.Err
		}
		return &IngestResult{DocID: st.Req.DocID, ChunkNum: len(st.Chunks), Chunks: st.Chunks}, nil
	}

	_ = g.AddLambdaNode(nodeChunk,
		compose.InvokableLambda(func(ctx context.Context, req *IngestRequest) (*ingestState, error) {
			st, _ := prepare(ctx, req)
			return p.chunkNode(ctx, st)
		}),
		compose.WithNodeName(nodeChunk))
	_ = g.AddLambdaNode(nodeEmbed,
		compose.InvokableLambda(p.embedNode),
		compose.WithNodeName(nodeEmbed))
	_ = g.AddLambdaNode(nodeReplace,
		compose.InvokableLambda(p.replaceNode),
		compose.WithNodeName(nodeReplace))
	_ = g.AddLambdaNode(nodeFinish,
		compose.InvokableLambda(finish),
		compose.WithNodeName(nodeFinish))

	_ = g.AddEdge(compose.START, nodeChunk)
	_ = g.AddEdge(nodeChunk, nodeEmbed)
	_ = g.AddEdge(nodeEmbed, nodeReplace)
	_ = g.AddEdge(nodeReplace, nodeFinish)
	_ = g.AddEdge(nodeFinish, compose.END)

	return g.Compile(ctx,
		compose.WithGraphName("DocumentIngest"),
		compose.WithNodeTriggerMode(compose.AllPredecessor))
}
