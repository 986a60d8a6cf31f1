package analysis

// Built-in Chinese sentiment lexicon used by SentimentScorer. The lists lean
// toward vocabulary common in video titles and descriptions on the platform.

var positiveLexicon = []string{
	"好", "棒", "赞", "优秀", "高效", "成功", "提升", "提高", "进步", "成长",
	"干货", "实用", "推荐", "必看", "精彩", "厉害", "强大", "突破", "掌握",
	"学会", "搞定", "清晰", "简单", "轻松", "有效", "靠谱", "满满", "收获",
	"受益", "改变", "坚持", "自律", "落地", "完美", "喜欢", "爱了", "值得",
	"神器", "宝藏", "良心", "效率", "专业", "顶级", "牛", "绝了", "真香",
	"涨知识", "有用", "开心", "快乐", "激励", "鼓舞", "振奋", "精进",
}

var negativeLexicon = []string{
	"差", "烂", "糟糕", "失败", "拖延", "焦虑", "迷茫", "困难", "问题",
	"错误", "低效", "浪费", "放弃", "懒", "拖沓", "摆烂", "内卷", "痛苦",
	"崩溃", "难受", "失望", "无效", "混乱", "瓶颈", "坑",
	"翻车", "无语", "后悔", "累", "疲惫", "压力", "挫败", "困境", "危机",
	"不行", "不足", "不会", "做不到", "完不成", "三分钟热度", "半途而废",
	"效率低", "执行难", "没用", "骗局", "智商税", "割韭菜", "毒鸡汤",
}
