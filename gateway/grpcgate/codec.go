package grpcgate

import (
	"encoding/base64"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"google.golang.org/protobuf/types/known/structpb"

	"xdao.co/collauth/runtime"
)

// Request struct field names.
const (
	fieldAuthority  = "authority"
	fieldAsset      = "asset"
	fieldCollection = "collection"
	fieldName       = "name"
	fieldURI        = "uri"
	fieldSignature  = "signature"
	fieldRequestID  = "request_id"
	fieldAddress    = "address"
	fieldBump       = "bump"
)

// EncodeTransaction renders tx as a request Struct. The op is implied by the
// method the Struct is sent to. Keys are base58; the signature is base64.
func EncodeTransaction(tx runtime.Transaction) (*structpb.Struct, error) {
	fields := map[string]any{
		fieldAuthority:  tx.Authority.String(),
		fieldAsset:      tx.Asset.String(),
		fieldCollection: tx.Collection.String(),
		fieldSignature:  base64.StdEncoding.EncodeToString(tx.Signature),
	}
	if tx.Op == runtime.OpUpdate {
		fields[fieldName] = tx.Name
		fields[fieldURI] = tx.URI
	}
	return structpb.NewStruct(fields)
}

// DecodeTransaction parses a request Struct for op.
func DecodeTransaction(op runtime.Op, in *structpb.Struct) (runtime.Transaction, error) {
	tx := runtime.Transaction{Op: op}
	var err error
	if tx.Authority, err = keyField(in, fieldAuthority); err != nil {
		return runtime.Transaction{}, err
	}
	if tx.Asset, err = keyField(in, fieldAsset); err != nil {
		return runtime.Transaction{}, err
	}
	if tx.Collection, err = keyField(in, fieldCollection); err != nil {
		return runtime.Transaction{}, err
	}
	if op == runtime.OpUpdate {
		if tx.Name, err = stringField(in, fieldName); err != nil {
			return runtime.Transaction{}, err
		}
		if tx.URI, err = stringField(in, fieldURI); err != nil {
			return runtime.Transaction{}, err
		}
	}
	sig, err := stringField(in, fieldSignature)
	if err != nil {
		return runtime.Transaction{}, err
	}
	if tx.Signature, err = base64.StdEncoding.DecodeString(sig); err != nil {
		return runtime.Transaction{}, fmt.Errorf("%s: %w", fieldSignature, err)
	}
	return tx, nil
}

func stringField(in *structpb.Struct, name string) (string, error) {
	v, ok := in.GetFields()[name]
	if !ok {
		return "", fmt.Errorf("missing field %q", name)
	}
	s, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", fmt.Errorf("field %q must be a string", name)
	}
	return s.StringValue, nil
}

func keyField(in *structpb.Struct, name string) (solana.PublicKey, error) {
	s, err := stringField(in, name)
	if err != nil {
		return solana.PublicKey{}, err
	}
	pk, err := solana.PublicKeyFromBase58(s)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("field %q: %w", name, err)
	}
	return pk, nil
}
