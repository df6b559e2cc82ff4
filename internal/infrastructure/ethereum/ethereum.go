package ethereum

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

var (
	ErrConnectionFailed  = fmt.Errorf("Unable to connect to blockchain network")
	ErrRPCTimeout        = fmt.Errorf("Blockchain network timeout")
	ErrStorageReadFailed = fmt.Errorf("Unable to read contract data")
)

// Client is the read-only view of the chain the services need: block height
// and raw contract storage, served from a pool of RPC connections.
type Client interface {
	// GetLatestBlockNumber returns the number of the latest block.
	GetLatestBlockNumber(ctx context.Context) (uint64, error)

	// ReadContractStorage reads one storage word of a contract at the given
	// block, or at the head when blockNumber is nil.
	ReadContractStorage(ctx context.Context, contractAddress common.Address, storageKey common.Hash, blockNumber *big.Int) ([]byte, error)

	// Close releases all pooled connections.
	Close() error

	// ConnectionCount returns the number of pooled connections.
	ConnectionCount() int

	// CheckConnectionsHealth probes every pooled connection.
	CheckConnectionsHealth(ctx context.Context) []bool
}

// ConnectionPool fans requests out round-robin over several ethclient
// connections so one stalled call does not serialize the rest. The client
// slice is fixed after construction.
type ConnectionPool struct {
	clients []*ethclient.Client
	logger  *zap.Logger
	counter uint64
}

// NewClient dials poolSize connections to rpcURL and starts a background
// warmup so the first requests do not pay the handshake cost.
func NewClient(rpcURL string, poolSize int, logger *zap.Logger) (Client, error) {
	if poolSize <= 0 {
		poolSize = 1
	}

	clients := make([]*ethclient.Client, poolSize)
	for i := range clients {
		client, err := ethclient.Dial(rpcURL)
		if err != nil {
			for j := 0; j < i; j++ {
				clients[j].Close()
			}
			return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
		}
		clients[i] = client
	}

	logger.Info("Created Ethereum connection pool",
		zap.String("url", rpcURL),
		zap.Int("pool_size", poolSize))

	pool := &ConnectionPool{
		clients: clients,
		logger:  logger,
	}

	go pool.warmup()

	return pool, nil
}

func (p *ConnectionPool) warmup() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(len(p.clients))

	for i, client := range p.clients {
		go func(index int, client *ethclient.Client) {
			defer wg.Done()

			if _, err := client.BlockNumber(ctx); err != nil {
				p.logger.Warn("Failed to warm up connection",
					zap.Int("connection", index),
					zap.Error(err))
				return
			}
			p.logger.Debug("Connection warmed up",
				zap.Int("connection", index))
		}(i, client)
	}

	wg.Wait()
	p.logger.Info("Connection pool warmup completed")
}

func (p *ConnectionPool) next() *ethclient.Client {
	index := atomic.AddUint64(&p.counter, 1) % uint64(len(p.clients))
	return p.clients[index]
}

// GetLatestBlockNumber returns the number of the latest block.
func (p *ConnectionPool) GetLatestBlockNumber(ctx context.Context) (uint64, error) {
	blockNumber, err := p.next().BlockNumber(ctx)
	if err != nil {
		return 0, classify(err, ErrConnectionFailed)
	}
	return blockNumber, nil
}

// ReadContractStorage reads one storage word of a contract.
func (p *ConnectionPool) ReadContractStorage(ctx context.Context, contractAddress common.Address, storageKey common.Hash, blockNumber *big.Int) ([]byte, error) {
	data, err := p.next().StorageAt(ctx, contractAddress, storageKey, blockNumber)
	if err != nil {
		return nil, classify(err, ErrStorageReadFailed)
	}
	return data, nil
}

// Close releases all pooled connections.
func (p *ConnectionPool) Close() error {
	for _, client := range p.clients {
		client.Close()
	}
	p.logger.Info("Closed Ethereum connection pool")
	return nil
}

// ConnectionCount returns the number of pooled connections.
func (p *ConnectionPool) ConnectionCount() int {
	return len(p.clients)
}

// CheckConnectionsHealth probes every pooled connection concurrently with a
// bounded per-probe timeout.
func (p *ConnectionPool) CheckConnectionsHealth(ctx context.Context) []bool {
	health := make([]bool, len(p.clients))

	var wg sync.WaitGroup
	wg.Add(len(p.clients))

	for i, client := range p.clients {
		go func(index int, client *ethclient.Client) {
			defer wg.Done()

			probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()

			_, err := client.BlockNumber(probeCtx)
			health[index] = err == nil
		}(i, client)
	}

	wg.Wait()
	return health
}

// classify wraps err with the timeout sentinel when a context expired and
// with fallback otherwise.
func classify(err error, fallback error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrRPCTimeout, err)
	}
	return fmt.Errorf("%w: %v", fallback, err)
}
