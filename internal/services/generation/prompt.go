package generation

import (
	"fmt"
)

// DocumentExcerpt is how many runes of the document are sent to a provider.
const DocumentExcerpt = 5000

// SystemPrompt sets the copywriter persona for every provider.
const SystemPrompt = "你是一位极具创意的小红书内容创作专家，擅长创作爆款内容。你的文案风格活泼生动，充满情感共鸣，总是能引起大量点赞和评论。你深谙各平台算法和用户心理，能够精准把握内容创作的关键点。"

const userPromptTemplate = `请你作为一位专业的时尚产品营销专家，分析以下文档并创作一篇突出产品特点的小红书帖子：

文档名称: %s

文档内容:
%s...

请创作：
1. 一个爆款小红书标题（30字以内，使用表情符号，突出产品核心卖点和价值）
2. 一段详细介绍产品特点的正文内容（800-1200字）
   - 重点突出产品的设计理念、材质、工艺、功能等特点
   - 详细描述产品的独特卖点和优势
   - 加入专业的时尚术语和评价
   - 使用生动的语言描述产品的使用场景和搭配建议
   - 在适当位置加入表情符号增强亲和力
3. 五个与产品相关的热门话题标签（确保包含产品类型、风格特点和目标人群标签）
4. 三个最适合此产品推广的社交媒体平台，并详细说明为什么这些平台最适合
5. 一个详细的产品图片生成提示词（描述产品外观、色彩、材质、场景等元素）

请确保内容：
- 专业且具有说服力，突出产品的实际特点和价值
- 符合小红书平台的种草风格（真实、专业、有温度）
- 能够激发用户的购买欲望
- 使用行业专业术语提升可信度

请按以下格式回复:

【标题】
[创意标题]

【正文】
[详细产品介绍内容]

【话题】
[话题1] [话题2] [话题3] [话题4] [话题5]

【推荐平台】
[平台1]：[原因]
[平台2]：[原因]
[平台3]：[原因]

【图片提示】
[详细产品图片描述]
`

// UserPrompt builds the instruction for one document.
func UserPrompt(fileName, text string) string {
	return fmt.Sprintf(userPromptTemplate, fileName, excerpt(text, DocumentExcerpt))
}

// excerpt returns at most n runes of s.
func excerpt(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
