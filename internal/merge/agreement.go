package merge

import (
	"log/slog"
	"strings"
	"unicode"

	"github.com/go-dedup/simhash"
)

// agreementThreshold 定义重叠区一致性阈值：两侧转写指纹的汉明距离
// 超过该值视为明显分歧，记录告警但不改变中点合并结果
const agreementThreshold = 16

// overlapFeatureSet 实现 simhash.FeatureSet 接口，对重叠区文本做特征提取
// 使用小写词级 bigram 特征，对转写文本的局部换词不过度敏感
type overlapFeatureSet struct {
	text string
}

// GetFeatures 提取文本特征
func (o overlapFeatureSet) GetFeatures() []simhash.Feature {
	fields := strings.FieldsFunc(strings.ToLower(o.text), func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	})
	if len(fields) == 0 {
		return []simhash.Feature{}
	}

	features := make([]simhash.Feature, 0, len(fields))
	if len(fields) == 1 {
		return append(features, simhash.NewFeature([]byte(fields[0])))
	}
	for i := 0; i < len(fields)-1; i++ {
		bigram := fields[i] + " " + fields[i+1]
		features = append(features, simhash.NewFeature([]byte(bigram)))
	}
	return features
}

// fingerprint 计算重叠区文本的 SimHash 指纹
func fingerprint(text string) uint64 {
	sh := simhash.NewSimhash()
	return sh.GetSimhash(overlapFeatureSet{text: text})
}

// hammingDistance 计算两个指纹的汉明距离（0-64）
func hammingDistance(a, b uint64) int {
	x := a ^ b
	count := 0
	for x != 0 {
		count++
		x &= x - 1
	}
	return count
}

// agreementDistance 返回两侧重叠区文本的指纹距离
func agreementDistance(left, right string) int {
	return hammingDistance(fingerprint(left), fingerprint(right))
}

// checkOverlapAgreement 对比相邻切片对重叠区的两份转写
// 中点切分假设两侧在各自一半内容上基本一致；当两份文本整体分歧明显时
// 记录 WARN 供人工复核，而不是静默选择其中一侧
func checkOverlapAgreement(log *slog.Logger, leftChunk, rightChunk int, left, right string) {
	if left == "" && right == "" {
		return
	}
	if dist := agreementDistance(left, right); dist > agreementThreshold {
		log.Warn("chunk overlap transcriptions disagree",
			"left_chunk", leftChunk,
			"right_chunk", rightChunk,
			"hamming_distance", dist,
			"left_text", left,
			"right_text", right)
	}
}
