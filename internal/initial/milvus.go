package initial

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"alphabot/internal/config"
	"alphabot/pkg/zlog"

	mclient "github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.uber.org/zap"
)

var (
	milvusCli  mclient.Client
	milvusOnce sync.Once
)

// GetMilvus 获取全局 milvus 客户端, 首次调用会建库建表并加载集合
func GetMilvus() mclient.Client {
	milvusOnce.Do(initMilvus)
	return milvusCli
}

func initMilvus() {
	c := config.GetConfig().Milvus

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	cli, err := mclient.NewClient(ctx, mclient.Config{Address: c.Address})
	if err != nil {
		zlog.Fatal("connect milvus failed", zap.String("address", c.Address), zap.Error(err))
	}

	if err := ensureDatabase(ctx, cli, c.Database); err != nil {
		zlog.Fatal("ensure milvus database failed", zap.Error(err))
	}
	if err := cli.UsingDatabase(ctx, c.Database); err != nil {
		zlog.Fatal("using milvus database failed", zap.Error(err))
	}
	if err := ensureCollection(ctx, cli, c.Collection, c.Dim); err != nil {
		zlog.Fatal("ensure milvus collection failed", zap.Error(err))
	}
	if err := cli.LoadCollection(ctx, c.Collection, false); err != nil {
		zlog.Fatal("load milvus collection failed", zap.Error(err))
	}

	milvusCli = cli
	zlog.Info("milvus connected",
		zap.String("address", c.Address),
		zap.String("collection", c.Collection))
}

func ensureDatabase(ctx context.Context, cli mclient.Client, name string) error {
	dbs, err := cli.ListDatabases(ctx)
	if err != nil {
		return err
	}
	for _, d := range dbs {
		if d.Name == name {
			return nil
		}
	}
	return cli.CreateDatabase(ctx, name)
}

// schemaVectorDim 取集合 schema 中向量字段的维度, 没有向量字段返回 -1
func schemaVectorDim(sch *entity.Schema) int {
	if sch == nil {
		return -1
	}
	for _, f := range sch.Fields {
		if f == nil || f.DataType != entity.FieldTypeFloatVector {
			continue
		}
		d, err := strconv.Atoi(f.TypeParams[entity.TypeParamDim])
		if err != nil {
			return -1
		}
		return d
	}
	return -1
}

func ensureCollection(ctx context.Context, cli mclient.Client, name string, dim int) error {
	has, err := cli.HasCollection(ctx, name)
	if err != nil {
		return err
	}
	if has {
		// 已有集合的向量维度必须与配置一致, 不一致只能改配置或重建集合
		desc, err := cli.DescribeCollection(ctx, name)
		if err != nil {
			return err
		}
		got := schemaVectorDim(desc.Schema)
		if got != dim {
			return fmt.Errorf("collection %s vector dim %d does not match configured dim %d", name, got, dim)
		}
		return nil
	}

	schema := entity.NewSchema().
		WithName(name).
		WithDescription("knowledge base chunks").
		WithField(entity.NewField().WithName("id").WithDataType(entity.FieldTypeVarChar).
			WithMaxLength(64).WithIsPrimaryKey(true)).
		WithField(entity.NewField().WithName("vector").WithDataType(entity.FieldTypeFloatVector).
			WithDim(int64(dim))).
		WithField(entity.NewField().WithName("document_id").WithDataType(entity.FieldTypeVarChar).
			WithMaxLength(64)).
		WithField(entity.NewField().WithName("chunk_index").WithDataType(entity.FieldTypeInt64)).
		WithField(entity.NewField().WithName("seq").WithDataType(entity.FieldTypeInt64)).
		WithField(entity.NewField().WithName("min_level").WithDataType(entity.FieldTypeInt64)).
		WithField(entity.NewField().WithName("content").WithDataType(entity.FieldTypeVarChar).
			WithMaxLength(8192)).
		WithField(entity.NewField().WithName("metadata").WithDataType(entity.FieldTypeJSON))

	if err := cli.CreateCollection(ctx, schema, 1); err != nil {
		return err
	}

	idx, err := entity.NewIndexAUTOINDEX(entity.COSINE)
	if err != nil {
		return fmt.Errorf("build autoindex: %w", err)
	}
	return cli.CreateIndex(ctx, name, "vector", idx, false)
}
