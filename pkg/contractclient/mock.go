package contractclient

import (
	"crypto/ecdsa"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// MockContractClient is a scriptable in-memory ContractClient for the Test
// environment: callers preload the *exact* return values for each method
// name, mirroring the teacher's pattern of swapping a real ethclient for a
// mock in tests.
type MockContractClient struct {
	Address common.Address

	CallResults map[string][]interface{}
	CallErr     map[string]error
	SendHashes  map[string]common.Hash
	SendErr     map[string]error
	Receipts    string

	Calls []string
	Sends []string
}

var _ ContractClient = (*MockContractClient)(nil)

func NewMockContractClient(address common.Address) *MockContractClient {
	return &MockContractClient{
		Address:     address,
		CallResults: make(map[string][]interface{}),
		CallErr:     make(map[string]error),
		SendHashes:  make(map[string]common.Hash),
		SendErr:     make(map[string]error),
	}
}

func (m *MockContractClient) ContractAddress() common.Address { return m.Address }
func (m *MockContractClient) Abi() *abi.ABI                    { return &abi.ABI{} }

func (m *MockContractClient) Call(from *common.Address, method string, args ...interface{}) ([]interface{}, error) {
	m.Calls = append(m.Calls, method)
	if err, ok := m.CallErr[method]; ok {
		return nil, err
	}
	return m.CallResults[method], nil
}

func (m *MockContractClient) Send(standard Standard, gasLimit *big.Int, from *common.Address, key *ecdsa.PrivateKey, method string, args ...interface{}) (common.Hash, error) {
	m.Sends = append(m.Sends, method)
	if err, ok := m.SendErr[method]; ok {
		return common.Hash{}, err
	}
	if h, ok := m.SendHashes[method]; ok {
		return h, nil
	}
	return crypto.Keccak256Hash([]byte(method)), nil
}

func (m *MockContractClient) ParseReceipt(receipt *TxReceipt) (string, error) {
	return m.Receipts, nil
}
