package locale

var defaultProfile = Profile{
	PriorityGenres: []string{"pop", "rock", "hip hop", "electronic"},
	GenreWeights: []GenreWeight{
		{Key: "pop", Weight: 10},
		{Key: "rock", Weight: 10},
		{Key: "hip hop", Weight: 10},
		{Key: "electronic", Weight: 10},
	},
}

var defaultAliases = map[string]string{
	"ko":    "KR",
	"ko-kr": "KR",
	"korea": "KR",
	"ja":    "JP",
	"ja-jp": "JP",
	"japan": "JP",
	"en-us": "US",
	"en-gb": "GB",
	"uk":    "GB",
}

var defaultProfiles = []Profile{
	{
		Code:           "KR",
		Market:         "KR",
		PriorityGenres: []string{"k-pop", "k-rap", "k-indie", "korean r&b"},
		GenreWeights: []GenreWeight{
			{Key: "k-pop", Weight: 50},
			{Key: "korean", Weight: 40},
			{Key: "k-rap", Weight: 30},
			{Key: "k-indie", Weight: 25},
			{Key: "pop", Weight: 10},
			{Key: "hip hop", Weight: 10},
		},
		SearchKeywords: []string{"k-pop", "korean"},
		Boost:          true,
		Indicators:     []string{"k-pop", "kpop", "korean", "k-rap", "k-indie"},
		BoostedArtists: []string{
			"BTS", "BLACKPINK", "NewJeans", "Stray Kids", "TWICE",
			"SEVENTEEN", "aespa", "IVE", "LE SSERAFIM", "(G)I-DLE",
		},
	},
	{
		Code:           "JP",
		Market:         "JP",
		PriorityGenres: []string{"j-pop", "j-rock", "anime", "city pop"},
		GenreWeights: []GenreWeight{
			{Key: "j-pop", Weight: 50},
			{Key: "japanese", Weight: 40},
			{Key: "j-rock", Weight: 30},
			{Key: "anime", Weight: 30},
			{Key: "city pop", Weight: 25},
			{Key: "pop", Weight: 10},
			{Key: "rock", Weight: 10},
		},
		SearchKeywords: []string{"j-pop", "japanese"},
		Boost:          true,
		Indicators:     []string{"j-pop", "jpop", "japanese", "j-rock", "anime"},
		BoostedArtists: []string{
			"YOASOBI", "Ado", "Kenshi Yonezu", "King Gnu",
			"Official HIGE DANdism", "Fujii Kaze", "Mrs. GREEN APPLE",
		},
	},
	{
		Code:           "US",
		Market:         "US",
		PriorityGenres: []string{"pop", "hip hop", "rock", "country"},
		GenreWeights: []GenreWeight{
			{Key: "hip hop", Weight: 30},
			{Key: "rap", Weight: 25},
			{Key: "pop", Weight: 25},
			{Key: "country", Weight: 20},
			{Key: "r&b", Weight: 20},
			{Key: "rock", Weight: 15},
		},
		SearchKeywords: []string{"hip hop", "pop"},
	},
	{
		Code:           "GB",
		Market:         "GB",
		PriorityGenres: []string{"grime", "uk garage", "britpop", "indie"},
		GenreWeights: []GenreWeight{
			{Key: "grime", Weight: 30},
			{Key: "uk garage", Weight: 30},
			{Key: "uk drill", Weight: 25},
			{Key: "britpop", Weight: 25},
			{Key: "indie", Weight: 20},
			{Key: "pop", Weight: 10},
		},
		SearchKeywords: []string{"uk", "british"},
	},
}
