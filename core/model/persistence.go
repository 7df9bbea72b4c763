package model

import (
	"encoding/binary"
	"encoding/json"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"

	"github.com/YuminosukeSato/linreg/pkg/errors"
	"github.com/YuminosukeSato/linreg/pkg/log"
)

// 保存ファイルの先頭に置くヘッダ。整数はすべてリトルエンディアン。
//
//	offset  size  field
//	0       4     magic "LRGM"
//	4       1     format version
//	5       1     codec
//	6       2     reserved (0)
//	8       8     uncompressed payload length
//	16      8     compressed payload length
//	24      8     xxhash64 of the uncompressed payload
const (
	headerSize    = 32
	formatVersion = 1

	// maxPayloadSize は壊れたヘッダによる巨大なアロケーションを防ぐ上限
	maxPayloadSize = 1 << 30
)

var magic = [4]byte{'L', 'R', 'G', 'M'}

type header struct {
	version       uint8
	codec         CodecType
	rawLen        uint64
	compressedLen uint64
	payloadHash   uint64
}

func (h header) marshal() []byte {
	b := make([]byte, headerSize)
	copy(b[0:4], magic[:])
	b[4] = h.version
	b[5] = uint8(h.codec)
	binary.LittleEndian.PutUint64(b[8:16], h.rawLen)
	binary.LittleEndian.PutUint64(b[16:24], h.compressedLen)
	binary.LittleEndian.PutUint64(b[24:32], h.payloadHash)
	return b
}

func parseHeader(b []byte) (header, error) {
	var h header
	if [4]byte(b[0:4]) != magic {
		return h, errors.NewModelError("LoadModel", "not a model file", nil)
	}
	h.version = b[4]
	if h.version != formatVersion {
		return h, errors.NewModelError("LoadModel", "unsupported format version", errors.Newf("version %d", h.version))
	}
	h.codec = CodecType(b[5])
	h.rawLen = binary.LittleEndian.Uint64(b[8:16])
	h.compressedLen = binary.LittleEndian.Uint64(b[16:24])
	h.payloadHash = binary.LittleEndian.Uint64(b[24:32])
	if h.rawLen > maxPayloadSize || h.compressedLen > maxPayloadSize {
		return h, errors.NewModelError("LoadModel", "payload too large", nil)
	}
	return h, nil
}

// SaveModelToWriter はモデルを JSON にエンコードし、圧縮してヘッダ付きで w に書き込む
//
// パラメータ:
//   - model: 保存するモデル（json.Marshaler を実装するか JSON でエンコード可能な値）
//   - w: 保存先のWriter
//   - codec: ペイロードの圧縮方式
//
// 戻り値:
//   - error: 保存に失敗した場合のエラー
func SaveModelToWriter(model interface{}, w io.Writer, codec CodecType) error {
	c, err := GetCodec(codec)
	if err != nil {
		return errors.NewModelError("SaveModel", "codec", err)
	}
	raw, err := json.Marshal(model)
	if err != nil {
		return errors.NewModelError("SaveModel", "encode", err)
	}
	compressed, err := c.Compress(raw)
	if err != nil {
		return errors.NewModelError("SaveModel", "compress", err)
	}

	h := header{
		version:       formatVersion,
		codec:         codec,
		rawLen:        uint64(len(raw)),
		compressedLen: uint64(len(compressed)),
		payloadHash:   xxhash.Sum64(raw),
	}
	if _, err := w.Write(h.marshal()); err != nil {
		return errors.NewModelError("SaveModel", "write header", err)
	}
	if _, err := w.Write(compressed); err != nil {
		return errors.NewModelError("SaveModel", "write payload", err)
	}

	log.GetLogger().Debug("Model saved",
		log.OperationKey, log.OperationSave,
		log.CodecKey, codec.String(),
		log.BytesKey, headerSize+len(compressed),
	)
	return nil
}

// LoadModelFromReader はヘッダを検証してペイロードを展開し、model にデコードする
//
// パラメータ:
//   - model: 読み込み先のモデル（ポインタ）
//   - r: 読み込み元のReader
//
// 戻り値:
//   - error: ファイルが壊れている場合は ModelError
func LoadModelFromReader(model interface{}, r io.Reader) error {
	hb := make([]byte, headerSize)
	if _, err := io.ReadFull(r, hb); err != nil {
		return errors.NewModelError("LoadModel", "truncated header", err)
	}
	h, err := parseHeader(hb)
	if err != nil {
		return err
	}
	c, err := GetCodec(h.codec)
	if err != nil {
		return errors.NewModelError("LoadModel", "codec", err)
	}

	compressed := make([]byte, h.compressedLen)
	if _, err := io.ReadFull(r, compressed); err != nil {
		return errors.NewModelError("LoadModel", "truncated payload", err)
	}
	raw, err := c.Decompress(compressed, int(h.rawLen))
	if err != nil {
		return errors.NewModelError("LoadModel", "decompress", err)
	}
	if uint64(len(raw)) != h.rawLen {
		return errors.NewModelError("LoadModel", "payload length mismatch", nil)
	}
	if xxhash.Sum64(raw) != h.payloadHash {
		return errors.NewModelError("LoadModel", "checksum mismatch", nil)
	}
	if err := json.Unmarshal(raw, model); err != nil {
		return errors.NewModelError("LoadModel", "decode", err)
	}

	log.GetLogger().Debug("Model loaded",
		log.OperationKey, log.OperationLoad,
		log.CodecKey, h.codec.String(),
		log.BytesKey, headerSize+len(compressed),
	)
	return nil
}

// SaveModel はモデルをファイルに保存する
//
// 使用例:
//
//	res, err := learner.Fit(ctx, src, design)
//	// ...
//	err = model.SaveModel(res, "model.lrm", model.CodecZstd)
func SaveModel(model interface{}, filename string, codec CodecType) error {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "create %s", filename)
	}
	if err := SaveModelToWriter(model, file, codec); err != nil {
		file.Close()
		return err
	}
	return errors.Wrapf(file.Close(), "close %s", filename)
}

// LoadModel はファイルからモデルを読み込む
//
// 使用例:
//
//	var res linear.Result
//	err := model.LoadModel(&res, "model.lrm")
func LoadModel(model interface{}, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return errors.Wrapf(err, "open %s", filename)
	}
	defer file.Close()
	return LoadModelFromReader(model, file)
}
