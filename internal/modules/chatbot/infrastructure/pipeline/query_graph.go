package pipeline

import (
	"context"

	"github.com/cloudwego/eino/compose"
)

const (
	nodeEmbedQuery = "EmbedQuery"
	nodeRetrieve   = "Retrieve"
	nodeRerank     = "Rerank"
	nodeCollect    = "Collect"
)

type queryRunner = compose.Runnable[*QueryRequest, *QueryResult]

func buildQueryGraph(ctx context.Context, p *QueryPipeline) (queryRunner, error) {
	g := compose.NewGraph[*QueryRequest, *QueryResult]()

	_ = g.AddLambdaNode(nodeEmbedQuery,
		compose.InvokableLambda(func(ctx context.Context, req *QueryRequest) (*queryState, error) {
			return p.embedQueryNode(ctx, &queryState{Req: req})
		}),
		compose.WithNodeName(nodeEmbedQuery))
	_ = g.AddLambdaNode(nodeRetrieve,
		compose.InvokableLambda(p.retrieveNode),
		compose.WithNodeName(nodeRetrieve))
	_ = g.AddLambdaNode(nodeRerank,
		compose.InvokableLambda(p.rerankNode),
		compose.WithNodeName(nodeRerank))
	_ = g.AddLambdaNode(nodeCollect,
		compose.InvokableLambda(func(_ context.Context, st *queryState) (*QueryResult, error) {
			if st.Err != nil {
				return nil, st.Err
			}
			return &QueryResult{Hits: st.Hits}, nil
		}),
		compose.WithNodeName(nodeCollect))

	_ = g.AddEdge(compose.START, nodeEmbedQuery)
	_ = g.AddEdge(nodeEmbedQuery, nodeRetrieve)
	_ = g.AddEdge(nodeRetrieve, nodeRerank)
	_ = g.AddEdge(nodeRerank, nodeCollect)
	_ = g.AddEdge(nodeCollect, compose.END)

	return g.Compile(ctx,
		compose.WithGraphName("KnowledgeQuery"),
		compose.WithNodeTriggerMode(compose.AllPredecessor))
}
