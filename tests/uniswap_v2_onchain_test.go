package tests

import (
	"context"
	"math/big"
	"os"
	"strings"
	"testing"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	gethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/triantafd/advanced-defi-2024/pkg/constantproduct"
)

// Router02 exposes getAmountOut as a pure function, which makes the mainnet
// contract a reference oracle for the local swap math.
const getAmountOutABI = `[{"inputs":[{"internalType":"uint256","name":"amountIn","type":"uint256"},{"internalType":"uint256","name":"reserveIn","type":"uint256"},{"internalType":"uint256","name":"reserveOut","type":"uint256"}],"name":"getAmountOut","outputs":[{"internalType":"uint256","name":"amountOut","type":"uint256"}],"stateMutability":"pure","type":"function"}]`

func TestGetAmountOut_Onchain(t *testing.T) {
	rpcURL := os.Getenv("ETHEREUM_RPC_URL")
	if rpcURL == "" {
		t.Skip("ETHEREUM_RPC_URL not set; skipping on-chain comparison test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		t.Fatalf("dial eth rpc: %v", err)
	}

	contractABI, err := gethabi.JSON(strings.NewReader(getAmountOutABI))
	if err != nil {
		t.Fatalf("parse abi: %v", err)
	}

	router := common.HexToAddress("0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D")

	cases := []struct {
		name       string
		amountIn   *big.Int
		reserveIn  *big.Int
		reserveOut *big.Int
	}{
		{"small_balanced", big.NewInt(1_000), big.NewInt(1_000_000), big.NewInt(1_000_000)},
		{"skewed_reserves", big.NewInt(50_000_000_000_000), new(big.Int).SetUint64(5_000_000_000_000_000), new(big.Int).SetUint64(100_000_000_000_000_000)},
		{"large_values", new(big.Int).SetUint64(1_000_000_000_000_000), new(big.Int).SetUint64(50_000_000_000_000_000), new(big.Int).SetUint64(75_000_000_000_000_000)},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			local := constantproduct.GetAmountOut(tc.amountIn, tc.reserveIn, tc.reserveOut, constantproduct.DefaultFee)

			input, err := contractABI.Pack("getAmountOut", tc.amountIn, tc.reserveIn, tc.reserveOut)
			if err != nil {
				t.Fatalf("abi pack: %v", err)
			}

			call := ethereum.CallMsg{To: &router, Data: input}
			out, err := client.CallContract(ctx, call, nil)
			if err != nil {
				t.Fatalf("eth_call getAmountOut: %v", err)
			}
			values, err := contractABI.Unpack("getAmountOut", out)
			if err != nil {
				t.Fatalf("abi unpack: %v", err)
			}
			if len(values) != 1 {
				t.Fatalf("unexpected outputs: %d", len(values))
			}
			onchain, ok := values[0].(*big.Int)
			if !ok {
				t.Fatalf("unexpected output type: %T", values[0])
			}

			if local.Cmp(onchain) != 0 {
				t.Fatalf("mismatch: local=%s onchain=%s (in=%s rIn=%s rOut=%s)", local, onchain, tc.amountIn, tc.reserveIn, tc.reserveOut)
			}
		})
	}
}
