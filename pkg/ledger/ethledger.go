package ledger

import (
	"context"
	"crypto/ecdsa"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/liquidops/apyvault/pkg/apyerr"
	"github.com/liquidops/apyvault/pkg/contractclient"
	"github.com/liquidops/apyvault/pkg/txlistener"
)

var buildErrorCode = apyerr.BuildErrorCode(apyerr.AreaLibraries, apyerr.DomainLedger, "01")

// EthLedger is the production Ledger (§6.4 Prod environment), backing
// TransferFrom/Transfer/Approve/TransferFee against a deployed ICRC-2-style
// token contract through one contractclient.ContractClient per token,
// grounded on icrc_ledger_client's icrc2_transfer_from/icrc2_approve/
// icrc1_fee call set adapted onto the EVM ERC20 method names
// ("transferFrom"/"transfer"/"approve"/"fee").
type EthLedger struct {
	clients    map[common.Address]contractclient.ContractClient
	myAddr     common.Address
	privateKey *ecdsa.PrivateKey
	tl         txlistener.TxListener
}

func NewEthLedger(clients map[common.Address]contractclient.ContractClient, myAddr common.Address, privateKey *ecdsa.PrivateKey, tl txlistener.TxListener) *EthLedger {
	return &EthLedger{clients: clients, myAddr: myAddr, privateKey: privateKey, tl: tl}
}

func (l *EthLedger) clientFor(token TokenID) (contractclient.ContractClient, error) {
	c, ok := l.clients[token]
	if !ok {
		return nil, apyerr.Infrastructure(buildErrorCode(apyerr.KindInfrastructure, 1), "ethledger.clientFor",
			"no contract client registered for token", map[string]string{"token": token.Hex()})
	}
	return c, nil
}

// TransferFrom returns the confirmed receipt's status code (1 on success)
// where the Ledger interface describes a block index, since
// contractclient.TxReceipt carries no block number.
func (l *EthLedger) TransferFrom(ctx context.Context, token TokenID, from common.Address, amount *big.Int) (uint64, error) {
	c, err := l.clientFor(token)
	if err != nil {
		return 0, err
	}
	hash, err := c.Send(contractclient.StandardLegacy, nil, &l.myAddr, l.privateKey, "transferFrom", from, l.myAddr, amount)
	if err != nil {
		return 0, apyerr.ExternalService(buildErrorCode(apyerr.KindExternalService, 1), "ethledger.TransferFrom",
			"failed to submit transferFrom", nil)
	}
	receipt, err := l.tl.WaitForTransaction(hash)
	if err != nil {
		return 0, apyerr.ExternalService(buildErrorCode(apyerr.KindExternalService, 2), "ethledger.TransferFrom",
			"transferFrom transaction failed", nil)
	}
	return receipt.Status, nil
}

func (l *EthLedger) Transfer(ctx context.Context, token TokenID, to common.Address, amount *big.Int) (*big.Int, error) {
	c, err := l.clientFor(token)
	if err != nil {
		return nil, err
	}
	hash, err := c.Send(contractclient.StandardLegacy, nil, &l.myAddr, l.privateKey, "transfer", to, amount)
	if err != nil {
		return nil, apyerr.ExternalService(buildErrorCode(apyerr.KindExternalService, 3), "ethledger.Transfer",
			"failed to submit transfer", nil)
	}
	if _, err := l.tl.WaitForTransaction(hash); err != nil {
		return nil, apyerr.ExternalService(buildErrorCode(apyerr.KindExternalService, 4), "ethledger.Transfer",
			"transfer transaction failed", nil)
	}
	return amount, nil
}

func (l *EthLedger) Approve(ctx context.Context, token TokenID, spender common.Address, amount *big.Int) error {
	c, err := l.clientFor(token)
	if err != nil {
		return err
	}
	hash, err := c.Send(contractclient.StandardLegacy, nil, &l.myAddr, l.privateKey, "approve", spender, amount)
	if err != nil {
		return apyerr.ExternalService(buildErrorCode(apyerr.KindExternalService, 5), "ethledger.Approve",
			"failed to submit approve", nil)
	}
	if _, err := l.tl.WaitForTransaction(hash); err != nil {
		return apyerr.ExternalService(buildErrorCode(apyerr.KindExternalService, 6), "ethledger.Approve",
			"approve transaction failed", nil)
	}
	return nil
}

func (l *EthLedger) TransferFee(ctx context.Context, token TokenID) (*big.Int, error) {
	c, err := l.clientFor(token)
	if err != nil {
		return nil, err
	}
	out, err := c.Call(&l.myAddr, "fee")
	if err != nil {
		return nil, apyerr.ExternalService(buildErrorCode(apyerr.KindExternalService, 7), "ethledger.TransferFee",
			"failed to query transfer fee", nil)
	}
	if len(out) != 1 {
		return nil, apyerr.Infrastructure(buildErrorCode(apyerr.KindInfrastructure, 2), "ethledger.TransferFee",
			"unexpected fee result shape", nil)
	}
	fee, ok := out[0].(*big.Int)
	if !ok {
		return nil, apyerr.Infrastructure(buildErrorCode(apyerr.KindInfrastructure, 3), "ethledger.TransferFee",
			"fee result is not a *big.Int", nil)
	}
	return fee, nil
}

var _ Ledger = (*EthLedger)(nil)
