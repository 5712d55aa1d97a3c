package synth

import (
	"fmt"
	"strings"
)

const plannerSystem = `你是注册会计师（CPA）课程的教案设计师。给定一个考试科目，请将其拆分为可出题的考点子主题，并为每个子主题标注难度。
要求：
- 子主题应覆盖该科目的核心考点，彼此不重复。
- 难度取值仅限 easy、medium、hard，整体分布大致均衡。
- 严格按要求的 JSON 结构输出，不要附加任何说明文字。`

const writerSystem = `你是 CPA 讲解老师。根据给定的科目、考点与难度生成一道问答题（中文），并附标准答案。
要求：
- 问题以“问：”开头，答案以“答：”开头，各占一段。
- 答案应准确、有条理，覆盖该考点的关键内容。
- 同一考点的不同变体序号应各有侧重，避免与已出题目重复。`

// writerSystemStrict is the second-chance prompt used when the first
// response could not be split into question and answer.
const writerSystemStrict = writerSystem + `
- 再次强调输出格式：第一行必须以“问：”开头，随后另起一行以“答：”开头，除这两段外不得输出任何其他内容。`

const reviewerSystem = `你是注册会计师出题专家。请对以下问答进行评分与点评，满分 10 分。
评分考虑：题目是否清晰、答案是否正确完整、是否贴合考点与难度。
请输出 JSON，包含 score（0-10 的数字）与 review（点评），可选 revision_notes（修改建议）。`

const noteSystem = `为 CPA 知识点写简短 teaching_note，便于学生快速理解。请输出 80-120 字讲解，不要输出标题。`

// buildPlannerMessage asks for count specs on the topic.
func buildPlannerMessage(topic string, count int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "科目: %s\n", topic)
	fmt.Fprintf(&b, "需要的考点数量: %d\n", count)
	b.WriteString("请以 JSON 输出，结构为 {\"items\": [{\"sub_topic\": ..., \"difficulty\": ...}]}")
	return b.String()
}

// buildWriterMessage embeds the spec and recent questions to avoid.
func buildWriterMessage(topic string, spec QuestionSpec, prior []string, max int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "科目: %s\n", topic)
	fmt.Fprintf(&b, "考点: %s\n", spec.SubTopic)
	fmt.Fprintf(&b, "难度: %s\n", spec.Difficulty)
	fmt.Fprintf(&b, "变体序号: %d\n", spec.Variant+1)

	b.WriteString("\n已出题目（避免重复）:\n")
	b.WriteString(formatPriorQuestions(prior, max))

	return b.String()
}

// buildReviewerMessage presents the draft for grading.
func buildReviewerMessage(d *Draft) string {
	var b strings.Builder
	fmt.Fprintf(&b, "问题: %s\n", d.Question)
	fmt.Fprintf(&b, "答案: %s\n", d.Answer)
	return b.String()
}

// buildNoteMessage asks for a short teaching note on one sub-topic.
func buildNoteMessage(topic, subTopic string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "科目: %s\n", topic)
	fmt.Fprintf(&b, "知识点: %s\n", subTopic)
	return b.String()
}

// formatPriorQuestions lists the most recent questions, capped at max.
// Returns "无" when there is nothing to avoid.
func formatPriorQuestions(prior []string, max int) string {
	if len(prior) == 0 {
		return "无"
	}

	if max > 0 && len(prior) > max {
		prior = prior[len(prior)-max:]
	}

	var b strings.Builder
	for i, q := range prior {
		fmt.Fprintf(&b, "%d. %s\n", i+1, q)
	}
	return strings.TrimRight(b.String(), "\n")
}
