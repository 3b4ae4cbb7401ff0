package krb

// PropertyKey is the closed enumeration of property names known to the
// engine. The wire format stores keys as u16; readers skip entries whose key
// falls outside this set.
type PropertyKey uint16

const (
	PropInvalid PropertyKey = 0x0000

	// Box geometry
	PropWidth     PropertyKey = 0x0001
	PropHeight    PropertyKey = 0x0002
	PropMinWidth  PropertyKey = 0x0003
	PropMinHeight PropertyKey = 0x0004
	PropMaxWidth  PropertyKey = 0x0005
	PropMaxHeight PropertyKey = 0x0006
	PropBoxSizing PropertyKey = 0x0007
	PropAspectRatio PropertyKey = 0x0008

	// Edges
	PropPadding       PropertyKey = 0x0010
	PropPaddingTop    PropertyKey = 0x0011
	PropPaddingRight  PropertyKey = 0x0012
	PropPaddingBottom PropertyKey = 0x0013
	PropPaddingLeft   PropertyKey = 0x0014
	PropMargin        PropertyKey = 0x0015
	PropMarginTop     PropertyKey = 0x0016
	PropMarginRight   PropertyKey = 0x0017
	PropMarginBottom  PropertyKey = 0x0018
	PropMarginLeft    PropertyKey = 0x0019

	// Border
	PropBorderWidth       PropertyKey = 0x0020
	PropBorderWidthTop    PropertyKey = 0x0021
	PropBorderWidthRight  PropertyKey = 0x0022
	PropBorderWidthBottom PropertyKey = 0x0023
	PropBorderWidthLeft   PropertyKey = 0x0024
	PropBorderColor       PropertyKey = 0x0025
	PropBorderRadius      PropertyKey = 0x0026
	PropOutlineColor      PropertyKey = 0x0027
	PropOutlineWidth      PropertyKey = 0x0028

	// Paint
	PropBackgroundColor PropertyKey = 0x0030
	PropTextColor       PropertyKey = 0x0031
	PropOpacity         PropertyKey = 0x0032
	PropTint            PropertyKey = 0x0033
	PropShadowColor     PropertyKey = 0x0034
	PropShadowOffsetX   PropertyKey = 0x0035
	PropShadowOffsetY   PropertyKey = 0x0036
	PropShadowBlur      PropertyKey = 0x0037

	// Typography
	PropFontSize      PropertyKey = 0x0040
	PropFontWeight    PropertyKey = 0x0041
	PropFontFamily    PropertyKey = 0x0042
	PropTextAlign     PropertyKey = 0x0043
	PropLineHeight    PropertyKey = 0x0044
	PropLetterSpacing PropertyKey = 0x0045
	PropWhiteSpace    PropertyKey = 0x0046
	PropTextOverflow  PropertyKey = 0x0047

	// Flex container
	PropFlexDirection  PropertyKey = 0x0050
	PropJustifyContent PropertyKey = 0x0051
	PropAlignItems     PropertyKey = 0x0052
	PropAlignContent   PropertyKey = 0x0053
	PropFlexWrap       PropertyKey = 0x0054
	PropGap            PropertyKey = 0x0055
	PropRowGap         PropertyKey = 0x0056
	PropColumnGap      PropertyKey = 0x0057

	// Flex item
	PropFlexGrow   PropertyKey = 0x0060
	PropFlexShrink PropertyKey = 0x0061
	PropFlexBasis  PropertyKey = 0x0062
	PropAlignSelf  PropertyKey = 0x0063
	PropOrder      PropertyKey = 0x0064

	// Positioning
	PropPosition PropertyKey = 0x0070
	PropTop      PropertyKey = 0x0071
	PropRight    PropertyKey = 0x0072
	PropBottom   PropertyKey = 0x0073
	PropLeft     PropertyKey = 0x0074
	PropZIndex   PropertyKey = 0x0075
	PropOverflow  PropertyKey = 0x0076
	PropOverflowX PropertyKey = 0x0077
	PropOverflowY PropertyKey = 0x0078

	// Display and interaction
	PropVisibility  PropertyKey = 0x0080
	PropDisplay     PropertyKey = 0x0081
	PropInteractive PropertyKey = 0x0082
	PropFocusable   PropertyKey = 0x0083
	PropDisabled    PropertyKey = 0x0084
	PropCursor      PropertyKey = 0x0085
	PropTransform   PropertyKey = 0x0086

	// Content
	PropTextContent PropertyKey = 0x0090
	PropImageSource PropertyKey = 0x0091
	PropPlaceholder PropertyKey = 0x0092
	PropChecked     PropertyKey = 0x0093
	PropValue       PropertyKey = 0x0094
	PropMinValue    PropertyKey = 0x0095
	PropMaxValue    PropertyKey = 0x0096
	PropStep        PropertyKey = 0x0097

	// App / window level
	PropWindowWidth  PropertyKey = 0x00A0
	PropWindowHeight PropertyKey = 0x00A1
	PropWindowTitle  PropertyKey = 0x00A2
	PropResizable    PropertyKey = 0x00A3
	PropScaleFactor  PropertyKey = 0x00A4
	PropKeepAspect   PropertyKey = 0x00A5
	PropIcon         PropertyKey = 0x00A6
	PropAppVersion   PropertyKey = 0x00A7
	PropAppAuthor    PropertyKey = 0x00A8
	// 0x00A9 - 0xFFFF Reserved
)

// Enum values carried by ValTypeEnum properties.
const (
	EnumDirRow           uint16 = 0x00
	EnumDirColumn        uint16 = 0x01
	EnumDirRowReverse    uint16 = 0x02
	EnumDirColumnReverse uint16 = 0x03

	EnumJustifyStart        uint16 = 0x00
	EnumJustifyCenter       uint16 = 0x01
	EnumJustifyEnd          uint16 = 0x02
	EnumJustifySpaceBetween uint16 = 0x03
	EnumJustifySpaceAround  uint16 = 0x04
	EnumJustifySpaceEvenly  uint16 = 0x05

	EnumAlignStart   uint16 = 0x00
	EnumAlignCenter  uint16 = 0x01
	EnumAlignEnd     uint16 = 0x02
	EnumAlignStretch uint16 = 0x03
	EnumAlignAuto    uint16 = 0x04

	EnumPositionFlow     uint16 = 0x00
	EnumPositionAbsolute uint16 = 0x01
	EnumPositionFixed    uint16 = 0x02
	EnumPositionSticky   uint16 = 0x03

	EnumOverflowVisible uint16 = 0x00
	EnumOverflowHidden  uint16 = 0x01
	EnumOverflowScroll  uint16 = 0x02

	EnumWrapNone uint16 = 0x00
	EnumWrapWrap uint16 = 0x01

	EnumTextAlignStart  uint16 = 0x00
	EnumTextAlignCenter uint16 = 0x01
	EnumTextAlignEnd    uint16 = 0x02

	EnumBoxSizingContent uint16 = 0x00
	EnumBoxSizingBorder  uint16 = 0x01
)

var knownKeys = map[PropertyKey]bool{}

func init() {
	for _, k := range []PropertyKey{
		PropWidth, PropHeight, PropMinWidth, PropMinHeight, PropMaxWidth, PropMaxHeight,
		PropBoxSizing, PropAspectRatio,
		PropPadding, PropPaddingTop, PropPaddingRight, PropPaddingBottom, PropPaddingLeft,
		PropMargin, PropMarginTop, PropMarginRight, PropMarginBottom, PropMarginLeft,
		PropBorderWidth, PropBorderWidthTop, PropBorderWidthRight, PropBorderWidthBottom, PropBorderWidthLeft,
		PropBorderColor, PropBorderRadius, PropOutlineColor, PropOutlineWidth,
		PropBackgroundColor, PropTextColor, PropOpacity, PropTint,
		PropShadowColor, PropShadowOffsetX, PropShadowOffsetY, PropShadowBlur,
		PropFontSize, PropFontWeight, PropFontFamily, PropTextAlign, PropLineHeight,
		PropLetterSpacing, PropWhiteSpace, PropTextOverflow,
		PropFlexDirection, PropJustifyContent, PropAlignItems, PropAlignContent,
		PropFlexWrap, PropGap, PropRowGap, PropColumnGap,
		PropFlexGrow, PropFlexShrink, PropFlexBasis, PropAlignSelf, PropOrder,
		PropPosition, PropTop, PropRight, PropBottom, PropLeft, PropZIndex,
		PropOverflow, PropOverflowX, PropOverflowY,
		PropVisibility, PropDisplay, PropInteractive, PropFocusable, PropDisabled,
		PropCursor, PropTransform,
		PropTextContent, PropImageSource, PropPlaceholder, PropChecked, PropValue,
		PropMinValue, PropMaxValue, PropStep,
		PropWindowWidth, PropWindowHeight, PropWindowTitle, PropResizable,
		PropScaleFactor, PropKeepAspect, PropIcon, PropAppVersion, PropAppAuthor,
	} {
		knownKeys[k] = true
	}
}

// KnownKey reports whether k belongs to the closed property enumeration.
func KnownKey(k PropertyKey) bool {
	return knownKeys[k]
}
