package util

import (
	"fmt"
	"math/big"

	"github.com/liquidops/apyvault/pkg/contractclient"
)

// ExtractGasCost returns gasUsed * effectiveGasPrice from a transaction
// receipt, the figure every venue adaptor accumulates into its total gas
// cost report.
func ExtractGasCost(receipt *contractclient.TxReceipt) (*big.Int, error) {
	gasUsed, ok := new(big.Int).SetString(receipt.GasUsed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid gas used %q in receipt", receipt.GasUsed)
	}
	gasPrice, ok := new(big.Int).SetString(receipt.EffectiveGasPrice, 10)
	if !ok {
		return nil, fmt.Errorf("invalid effective gas price %q in receipt", receipt.EffectiveGasPrice)
	}
	return new(big.Int).Mul(gasUsed, gasPrice), nil
}
