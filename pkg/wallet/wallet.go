package wallet

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/gagliardetto/solana-go"
)

// ERC20 balanceOf function ABI
const erc20BalanceABI = `[{"constant":true,"inputs":[{"name":"_owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"balance","type":"uint256"}],"type":"function"}]`

// Wallet holds the connected account and answers address and balance
// queries. The RPC connection and the account are both optional; every
// consumer must tolerate an absent account.
type Wallet struct {
	client  *ethclient.Client
	account string
}

// New creates a wallet. rpcURL may be empty, in which case balance lookups
// are unavailable; account may be empty, meaning not connected.
func New(rpcURL, account string) (*Wallet, error) {
	if account != "" && !common.IsHexAddress(account) {
		return nil, fmt.Errorf("invalid account address: %s", account)
	}

	w := &Wallet{account: account}
	if rpcURL != "" {
		client, err := ethclient.Dial(rpcURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to RPC endpoint: %w", err)
		}
		w.client = client
	}
	return w, nil
}

// Account returns the connected account address, if any.
func (w *Wallet) Account() (string, bool) {
	if w.account == "" {
		return "", false
	}
	return w.account, true
}

// ShortAccount returns a truncated form of the account for display.
func (w *Wallet) ShortAccount() string {
	addr, ok := w.Account()
	if !ok {
		return ""
	}
	if len(addr) <= 10 {
		return addr
	}
	return addr[:5] + "..." + addr[len(addr)-5:]
}

// IsAddressValid checks an Ethereum destination address. Synchronous and
// pure; this is the validator the engine consumes for the fixed ETH-side
// target asset.
func (w *Wallet) IsAddressValid(addr string) bool {
	return common.IsHexAddress(addr)
}

// IsAddressValidOn checks an address against the given network's format.
func (w *Wallet) IsAddressValidOn(network, addr string) bool {
	switch strings.ToUpper(strings.TrimSpace(network)) {
	case "SOL", "SOLANA":
		_, err := solana.PublicKeyFromBase58(addr)
		return err == nil
	default:
		return common.IsHexAddress(addr)
	}
}

// GetBalance returns the native coin balance of an address.
func (w *Wallet) GetBalance(ctx context.Context, addr string) (*big.Int, error) {
	if w.client == nil {
		return nil, fmt.Errorf("RPC endpoint not configured")
	}
	if !common.IsHexAddress(addr) {
		return nil, fmt.Errorf("invalid address: %s", addr)
	}
	balance, err := w.client.BalanceAt(ctx, common.HexToAddress(addr), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}
	return balance, nil
}

// GetTokenBalance returns the ERC20 balance of an address for a token
// contract.
func (w *Wallet) GetTokenBalance(ctx context.Context, addr, contract string) (*big.Int, error) {
	if w.client == nil {
		return nil, fmt.Errorf("RPC endpoint not configured")
	}
	if !common.IsHexAddress(addr) {
		return nil, fmt.Errorf("invalid address: %s", addr)
	}
	if !common.IsHexAddress(contract) {
		return nil, fmt.Errorf("invalid token contract: %s", contract)
	}

	parsed, err := abi.JSON(strings.NewReader(erc20BalanceABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ERC20 ABI: %w", err)
	}

	data, err := parsed.Pack("balanceOf", common.HexToAddress(addr))
	if err != nil {
		return nil, fmt.Errorf("failed to pack balanceOf call: %w", err)
	}

	contractAddr := common.HexToAddress(contract)
	result, err := w.client.CallContract(ctx, ethereum.CallMsg{
		To:   &contractAddr,
		Data: data,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to call balanceOf: %w", err)
	}

	values, err := parsed.Unpack("balanceOf", result)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack balanceOf result: %w", err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("unexpected balanceOf result")
	}
	balance, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected balanceOf result type")
	}
	return balance, nil
}

// FormatUnits renders a raw on-chain amount using the asset's decimal
// precision.
func FormatUnits(v *big.Int, decimals int) string {
	if v == nil {
		return "0"
	}
	scale := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	f := new(big.Float).Quo(new(big.Float).SetInt(v), scale)
	return f.Text('f', 6)
}
